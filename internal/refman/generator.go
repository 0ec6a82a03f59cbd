package refman

import (
	"sort"
	"strings"
)

// Brief returns the first sentence of a description: the first line, cut
// at the first period unless the line contains a refman tag.
func Brief(description string) string {
	brief, _, _ := strings.Cut(description, "\n")
	if idx := strings.Index(brief, "."); idx >= 0 && !strings.Contains(brief, "[[") {
		brief = brief[:idx]
	}
	return strings.TrimSpace(brief)
}

type sortable interface {
	SortKey() string
	IsHidden() bool
}

// SortedAndFiltered removes hidden entries and orders plain functions
// ("0_name") before methods ("1_obj.name").
func SortedAndFiltered[T sortable](raw []T) []T {
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		if !item.IsHidden() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortKey() < out[j].SortKey() })
	return out
}

func (m *ReferenceManual) SortedFunctions() []*Function {
	return SortedAndFiltered(m.Functions)
}

func (m *ReferenceManual) SortedObjects() []*Object {
	return SortedAndFiltered(m.Objects)
}

func (m *ReferenceManual) Elementary() []*Object {
	return m.objectsOfType(ObjectTypeElementary)
}

func (m *ReferenceManual) Builtins() []*Object {
	return m.objectsOfType(ObjectTypeBuiltin)
}

// Returned lists returned objects that do not belong to a module.
func (m *ReferenceManual) Returned() []*Object {
	var out []*Object
	for _, obj := range m.SortedObjects() {
		if obj.ObjType == ObjectTypeReturned && obj.DefinedByModule == nil {
			out = append(out, obj)
		}
	}
	return out
}

func (m *ReferenceManual) Modules() []*Object {
	return m.objectsOfType(ObjectTypeModule)
}

func (m *ReferenceManual) ReturnedByModule(module *Object) []*Object {
	var out []*Object
	for _, obj := range m.SortedObjects() {
		if obj.ObjType == ObjectTypeReturned && obj.DefinedByModule == module {
			out = append(out, obj)
		}
	}
	return out
}

func (m *ReferenceManual) objectsOfType(t ObjectType) []*Object {
	var out []*Object
	for _, obj := range m.SortedObjects() {
		if obj.ObjType == t {
			out = append(out, obj)
		}
	}
	return out
}
