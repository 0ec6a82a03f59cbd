package refman

import "fmt"

// Type is a reference-manual type annotation, e.g. "list[str | int]".
// Raw keeps the authored string; Resolved is filled by Resolve.
type Type struct {
	Raw      string
	Resolved []DataTypeInfo
}

type DataTypeInfo struct {
	DataType *Object
	Holds    *Type
}

type NamedObject struct {
	Name        string
	Description string
	Hidden      bool
}

func (n *NamedObject) IsHidden() bool {
	return n.Hidden
}

type FeatureCheck struct {
	Since      string
	Deprecated string
}

type ArgBase struct {
	NamedObject
	FeatureCheck
	Type Type
}

type PosArg struct {
	ArgBase
	Default string
}

type VarArgs struct {
	ArgBase
	// MinVarargs/MaxVarargs are -1 when unset.
	MinVarargs int
	MaxVarargs int
}

type Kwarg struct {
	ArgBase
	Required bool
	Default  string
}

func (k *Kwarg) SortKey() string {
	return "0_" + k.Name
}

type Function struct {
	NamedObject
	FeatureCheck
	Notes    []string
	Warnings []string
	Example  string
	Returns  Type

	Posargs []*PosArg
	Optargs []*PosArg
	Varargs *VarArgs
	Kwargs  map[string]*Kwarg

	PosargsInherit string
	OptargsInherit string
	VarargsInherit string
	KwargsInherit  []string

	ArgFlattening bool
}

func (f *Function) SortKey() string {
	return "0_" + f.Name
}

// Signature reference for links: plain functions anchor into the
// functions page.
func (f *Function) DisplayName() string {
	return f.Name
}

type Method struct {
	Function
	Obj *Object
}

func (m *Method) SortKey() string {
	return "1_" + m.Obj.Name + "." + m.Name
}

func (m *Method) DisplayName() string {
	return m.Obj.Name + "." + m.Name
}

// Callable is either a *Function or a *Method.
type Callable interface {
	SortKey() string
	IsHidden() bool
	DisplayName() string
}

type ObjectType int

const (
	ObjectTypeElementary ObjectType = iota
	ObjectTypeBuiltin
	ObjectTypeModule
	ObjectTypeReturned
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeElementary:
		return "elementary"
	case ObjectTypeBuiltin:
		return "builtin"
	case ObjectTypeModule:
		return "module"
	case ObjectTypeReturned:
		return "returned"
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

// ExportName is the upper-case form used by the JSON schema.
func (t ObjectType) ExportName() string {
	switch t {
	case ObjectTypeElementary:
		return "ELEMENTARY"
	case ObjectTypeBuiltin:
		return "BUILTIN"
	case ObjectTypeModule:
		return "MODULE"
	}
	return "RETURNED"
}

type Object struct {
	NamedObject
	FeatureCheck
	LongName    string
	Example     string
	Notes       []string
	Warnings    []string
	Extends     string
	Methods     []*Method
	IsContainer bool
	ObjType     ObjectType

	// Filled by Resolve.
	ExtendsObj       *Object
	ReturnedBy       []Callable
	ExtendedBy       []*Object
	DefinedByModule  *Object
	InheritedMethods []*Method
}

func (o *Object) SortKey() string {
	return "0_" + o.Name
}

func (o *Object) DisplayName() string {
	return o.Name
}

type ReferenceManual struct {
	Functions []*Function
	Objects   []*Object
}
