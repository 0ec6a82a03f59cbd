package refman

import (
	"encoding/json"
	"os"
	"strings"
)

// JSON schema version. The major number changes on incompatible layout
// changes, the minor on backwards compatible additions.
const (
	JSONVersionMajor = 1
	JSONVersionMinor = 0
)

type jsonTypeRef struct {
	Obj   string        `json:"obj"`
	Holds []jsonTypeRef `json:"holds"`
}

type jsonArgument struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Since       string        `json:"since,omitempty"`
	Deprecated  string        `json:"deprecated,omitempty"`
	Type        []jsonTypeRef `json:"type"`
	TypeStr     string        `json:"type_str"`
	Required    bool          `json:"required"`
	Default     string        `json:"default,omitempty"`
	MinVarargs  *int          `json:"min_varargs,omitempty"`
	MaxVarargs  *int          `json:"max_varargs,omitempty"`
}

type jsonFunction struct {
	Name          string                   `json:"name"`
	Description   string                   `json:"description"`
	Since         string                   `json:"since,omitempty"`
	Deprecated    string                   `json:"deprecated,omitempty"`
	Notes         []string                 `json:"notes"`
	Warnings      []string                 `json:"warnings"`
	Example       string                   `json:"example,omitempty"`
	Returns       []jsonTypeRef            `json:"returns"`
	ReturnsStr    string                   `json:"returns_str"`
	Posargs       map[string]*jsonArgument `json:"posargs"`
	Optargs       map[string]*jsonArgument `json:"optargs"`
	Kwargs        map[string]*jsonArgument `json:"kwargs"`
	Varargs       *jsonArgument            `json:"varargs"`
	ArgFlattening bool                     `json:"arg_flattening"`
}

type jsonObject struct {
	Name            string                   `json:"name"`
	Description     string                   `json:"description"`
	Since           string                   `json:"since,omitempty"`
	Deprecated      string                   `json:"deprecated,omitempty"`
	Notes           []string                 `json:"notes"`
	Warnings        []string                 `json:"warnings"`
	Example         string                   `json:"example,omitempty"`
	ObjectType      string                   `json:"object_type"`
	Methods         map[string]*jsonFunction `json:"methods"`
	IsContainer     bool                     `json:"is_container"`
	Extends         string                   `json:"extends,omitempty"`
	ReturnedBy      []string                 `json:"returned_by"`
	ExtendedBy      []string                 `json:"extended_by"`
	DefinedByModule string                   `json:"defined_by_module,omitempty"`
}

type jsonObjectsByType struct {
	Elementary []string            `json:"elementary"`
	Builtins   []string            `json:"builtins"`
	Returned   []string            `json:"returned"`
	Modules    map[string][]string `json:"modules"`
}

type jsonRoot struct {
	VersionMajor  int                      `json:"version_major"`
	VersionMinor  int                      `json:"version_minor"`
	Version       string                   `json:"version"`
	Functions     map[string]*jsonFunction `json:"functions"`
	Objects       map[string]*jsonObject   `json:"objects"`
	ObjectsByType jsonObjectsByType        `json:"objects_by_type"`
}

type GeneratorJSON struct {
	manual  *ReferenceManual
	out     string
	version string
}

// version labels the documented tool release, not the schema.
func NewGeneratorJSON(manual *ReferenceManual, out, version string) *GeneratorJSON {
	return &GeneratorJSON{manual: manual, out: out, version: version}
}

func genTypeRefs(t Type) []jsonTypeRef {
	refs := make([]jsonTypeRef, 0, len(t.Resolved))
	for _, dt := range t.Resolved {
		ref := jsonTypeRef{Obj: dt.DataType.Name, Holds: []jsonTypeRef{}}
		if dt.Holds != nil {
			ref.Holds = genTypeRefs(*dt.Holds)
		}
		refs = append(refs, ref)
	}
	return refs
}

// stripTypeStr drops all whitespace from a raw type annotation, the
// serialized form is "list[str|int]" regardless of authoring style.
func stripTypeStr(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, raw)
}

func genJSONArg(base *ArgBase, required bool, defaultValue string) *jsonArgument {
	return &jsonArgument{
		Name:        base.Name,
		Description: base.Description,
		Since:       base.Since,
		Deprecated:  base.Deprecated,
		Type:        genTypeRefs(base.Type),
		TypeStr:     stripTypeStr(base.Type.Raw),
		Required:    required,
		Default:     defaultValue,
	}
}

func genJSONFunction(fn *Function) *jsonFunction {
	out := &jsonFunction{
		Name:          fn.Name,
		Description:   fn.Description,
		Since:         fn.Since,
		Deprecated:    fn.Deprecated,
		Notes:         notNil(fn.Notes),
		Warnings:      notNil(fn.Warnings),
		Example:       fn.Example,
		Returns:       genTypeRefs(fn.Returns),
		ReturnsStr:    stripTypeStr(fn.Returns.Raw),
		Posargs:       make(map[string]*jsonArgument),
		Optargs:       make(map[string]*jsonArgument),
		Kwargs:        make(map[string]*jsonArgument),
		ArgFlattening: fn.ArgFlattening,
	}
	for _, a := range fn.Posargs {
		out.Posargs[a.Name] = genJSONArg(&a.ArgBase, true, a.Default)
	}
	for _, a := range fn.Optargs {
		out.Optargs[a.Name] = genJSONArg(&a.ArgBase, false, a.Default)
	}
	for name, kw := range fn.Kwargs {
		out.Kwargs[name] = genJSONArg(&kw.ArgBase, kw.Required, kw.Default)
	}
	if fn.Varargs != nil {
		va := genJSONArg(&fn.Varargs.ArgBase, false, "")
		if fn.Varargs.MinVarargs > 0 {
			va.MinVarargs = intPtr(fn.Varargs.MinVarargs)
		}
		if fn.Varargs.MaxVarargs > 0 {
			va.MaxVarargs = intPtr(fn.Varargs.MaxVarargs)
		}
		out.Varargs = va
	}
	return out
}

func genJSONObject(obj *Object) *jsonObject {
	out := &jsonObject{
		Name:        obj.Name,
		Description: obj.Description,
		Since:       obj.Since,
		Deprecated:  obj.Deprecated,
		Notes:       notNil(obj.Notes),
		Warnings:    notNil(obj.Warnings),
		Example:     obj.Example,
		ObjectType:  obj.ObjType.ExportName(),
		Methods:     make(map[string]*jsonFunction),
		IsContainer: obj.IsContainer,
		Extends:     obj.Extends,
		ReturnedBy:  []string{},
		ExtendedBy:  []string{},
	}
	for _, m := range SortedAndFiltered(obj.Methods) {
		out.Methods[m.Name] = genJSONFunction(&m.Function)
	}
	for _, ref := range SortedAndFiltered(obj.ReturnedBy) {
		out.ReturnedBy = append(out.ReturnedBy, ref.DisplayName())
	}
	for _, ext := range SortedAndFiltered(obj.ExtendedBy) {
		out.ExtendedBy = append(out.ExtendedBy, ext.Name)
	}
	if obj.DefinedByModule != nil {
		out.DefinedByModule = obj.DefinedByModule.Name
	}
	return out
}

func (g *GeneratorJSON) Generate() error {
	root := jsonRoot{
		VersionMajor: JSONVersionMajor,
		VersionMinor: JSONVersionMinor,
		Version:      g.version,
		Functions:    make(map[string]*jsonFunction),
		Objects:      make(map[string]*jsonObject),
		ObjectsByType: jsonObjectsByType{
			Elementary: []string{},
			Builtins:   []string{},
			Returned:   []string{},
			Modules:    make(map[string][]string),
		},
	}
	for _, fn := range g.manual.SortedFunctions() {
		root.Functions[fn.Name] = genJSONFunction(fn)
	}
	for _, obj := range g.manual.SortedObjects() {
		root.Objects[obj.Name] = genJSONObject(obj)
		switch obj.ObjType {
		case ObjectTypeElementary:
			root.ObjectsByType.Elementary = append(root.ObjectsByType.Elementary, obj.Name)
		case ObjectTypeBuiltin:
			root.ObjectsByType.Builtins = append(root.ObjectsByType.Builtins, obj.Name)
		case ObjectTypeReturned:
			root.ObjectsByType.Returned = append(root.ObjectsByType.Returned, obj.Name)
			if obj.DefinedByModule != nil {
				mod := obj.DefinedByModule.Name
				root.ObjectsByType.Modules[mod] = append(root.ObjectsByType.Modules[mod], obj.Name)
			}
		}
	}
	data, err := json.Marshal(root)
	if err != nil {
		return err
	}
	return os.WriteFile(g.out, data, 0o644)
}

func notNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func intPtr(v int) *int {
	return &v
}
