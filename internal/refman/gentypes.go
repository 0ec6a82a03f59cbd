package refman

import (
	"os"
	"strings"
)

// GeneratorTypes dumps every callable's argument and return types in
// canonical form, one block per function. The output is a stable text
// fixture for diffing type changes between manual revisions.
type GeneratorTypes struct {
	manual        *ReferenceManual
	out           string
	enableModules bool
}

func NewGeneratorTypes(manual *ReferenceManual, out string, enableModules bool) *GeneratorTypes {
	return &GeneratorTypes{manual: manual, out: out, enableModules: enableModules}
}

func typeLines(args []*PosArg) []string {
	lines := make([]string, 0, len(args))
	for _, arg := range args {
		lines = append(lines, "    "+CanonicalType(arg.Type.Raw))
	}
	return lines
}

func (g *GeneratorTypes) functionLines(f *Function, obj *Object) []string {
	name := f.Name
	if obj != nil {
		name = obj.Name + "." + f.Name
	}
	lines := []string{name}

	if len(f.Posargs) > 0 {
		lines = append(lines, "  posargs:")
		lines = append(lines, typeLines(f.Posargs)...)
	}
	if f.Varargs != nil {
		lines = append(lines, "  varargs:")
		lines = append(lines, "    "+CanonicalType(f.Varargs.Type.Raw))
	}
	if len(f.Optargs) > 0 {
		lines = append(lines, "  optargs:")
		lines = append(lines, typeLines(f.Optargs)...)
	}

	kwargs := make([]*Kwarg, 0, len(f.Kwargs))
	for _, k := range f.Kwargs {
		kwargs = append(kwargs, k)
	}
	kwargs = SortedAndFiltered(kwargs)
	if len(kwargs) > 0 {
		lines = append(lines, "  kwargs:")
	}
	for _, k := range kwargs {
		lines = append(lines, "    "+k.Name+": "+CanonicalType(k.Type.Raw))
	}

	lines = append(lines, "  returns:")
	lines = append(lines, "    "+CanonicalType(f.Returns.Raw))
	return lines
}

func (g *GeneratorTypes) render() string {
	var lines []string
	for _, f := range g.manual.SortedFunctions() {
		lines = append(lines, g.functionLines(f, nil)...)
	}
	for _, obj := range g.manual.SortedObjects() {
		if !g.enableModules && (obj.ObjType == ObjectTypeModule || obj.DefinedByModule != nil) {
			continue
		}
		for _, m := range SortedAndFiltered(obj.Methods) {
			lines = append(lines, g.functionLines(&m.Function, obj)...)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (g *GeneratorTypes) Generate() error {
	return os.WriteFile(g.out, []byte(g.render()), 0o644)
}
