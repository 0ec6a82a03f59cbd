package refman

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

func namedObj(name string, typ ObjectType) *Object {
	return &Object{
		NamedObject: NamedObject{Name: name, Description: name + " object."},
		LongName:    name,
		ObjType:     typ,
	}
}

func TestResolveReturnedBy(t *testing.T) {
	manual := loadResolvedManual(t)
	var exe *Object
	for _, obj := range manual.Objects {
		if obj.Name == "exe" {
			exe = obj
		}
	}
	require.NotNil(t, exe)

	// executable() and library() both return exe
	require.Len(t, exe.ReturnedBy, 2)
	names := []string{exe.ReturnedBy[0].DisplayName(), exe.ReturnedBy[1].DisplayName()}
	require.ElementsMatch(t, []string{"executable", "library"}, names)
}

func TestResolveInherit(t *testing.T) {
	manual := loadResolvedManual(t)
	lib := manual.Functions[1]
	require.Equal(t, "library", lib.Name)

	require.Len(t, lib.Posargs, 1)
	require.Equal(t, "target_name", lib.Posargs[0].Name)
	require.NotNil(t, lib.Varargs)

	// local kwargs win over inherited ones
	require.Equal(t, "Overrides the inherited description.", lib.Kwargs["install"].Description)
	require.Equal(t, "Target version.", lib.Kwargs["version"].Description)
}

func TestResolveTypes(t *testing.T) {
	manual := loadResolvedManual(t)
	exe := manual.Functions[0]
	require.Len(t, exe.Varargs.Type.Resolved, 2)
	require.Equal(t, "str", exe.Varargs.Type.Resolved[0].DataType.Name)
	require.Equal(t, "file", exe.Varargs.Type.Resolved[1].DataType.Name)
}

func TestResolveUnknownType(t *testing.T) {
	manual := &ReferenceManual{
		Functions: []*Function{{
			NamedObject: NamedObject{Name: "f", Description: "A function."},
			Returns:     Type{Raw: "nosuch"},
			Kwargs:      map[string]*Kwarg{},
		}},
	}
	err := Resolve(manual)
	require.ErrorIs(t, err, appErr.ErrUnknownRef)
}

func TestResolveUnknownExtends(t *testing.T) {
	obj := namedObj("child", ObjectTypeReturned)
	obj.Extends = "nosuch"
	err := Resolve(&ReferenceManual{Objects: []*Object{obj}})
	require.ErrorIs(t, err, appErr.ErrUnknownRef)
}

func TestResolveDuplicateNames(t *testing.T) {
	manual := &ReferenceManual{
		Objects: []*Object{namedObj("dup", ObjectTypeBuiltin), namedObj("dup", ObjectTypeReturned)},
	}
	require.ErrorContains(t, Resolve(manual), "duplicate object")
}

func TestResolveInheritedMethods(t *testing.T) {
	parent := namedObj("parent", ObjectTypeBuiltin)
	parent.Methods = []*Method{{
		Function: Function{
			NamedObject: NamedObject{Name: "base", Description: "Base method."},
			Returns:     Type{Raw: "parent"},
			Kwargs:      map[string]*Kwarg{},
		},
		Obj: parent,
	}}
	child := namedObj("child", ObjectTypeReturned)
	child.Extends = "parent"
	manual := &ReferenceManual{Objects: []*Object{parent, child}}
	require.NoError(t, Resolve(manual))

	require.Len(t, child.InheritedMethods, 1)
	require.Equal(t, "base", child.InheritedMethods[0].Name)
	require.Equal(t, []*Object{child}, parent.ExtendedBy)
}
