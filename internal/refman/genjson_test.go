package refman

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorJSON(t *testing.T) {
	manual := loadResolvedManual(t)
	out := filepath.Join(t.TempDir(), "refman.json")
	require.NoError(t, NewGeneratorJSON(manual, out, "1.2.3").Generate())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var root jsonRoot
	require.NoError(t, json.Unmarshal(raw, &root))

	require.Equal(t, JSONVersionMajor, root.VersionMajor)
	require.Equal(t, JSONVersionMinor, root.VersionMinor)
	require.Equal(t, "1.2.3", root.Version)

	exe := root.Functions["executable"]
	require.NotNil(t, exe)
	require.Equal(t, "exe", exe.ReturnsStr)
	require.Len(t, exe.Returns, 1)
	require.True(t, exe.Posargs["target_name"].Required)
	require.False(t, exe.Kwargs["install"].Required)
	require.Equal(t, "false", exe.Kwargs["install"].Default)
	require.NotNil(t, exe.Varargs)
	require.Nil(t, exe.Varargs.MinVarargs)
	// authored as "str | file", serialized without whitespace
	require.Equal(t, "str|file", exe.Varargs.TypeStr)

	obj := root.Objects["exe"]
	require.NotNil(t, obj)
	require.Equal(t, "RETURNED", obj.ObjectType)
	require.Contains(t, obj.Methods, "full_path")
	require.ElementsMatch(t, []string{"executable", "library"}, obj.ReturnedBy)

	require.Contains(t, root.ObjectsByType.Elementary, "str")
	require.Contains(t, root.ObjectsByType.Builtins, "machine")
	require.Equal(t, []string{"fsfile"}, root.ObjectsByType.Modules["fs"])
	require.Equal(t, "fs", root.Objects["fsfile"].DefinedByModule)
}

func TestStripTypeStr(t *testing.T) {
	require.Equal(t, "list[str|int]", stripTypeStr("list[str | int]"))
	require.Equal(t, "str", stripTypeStr(" str\n"))
	require.Equal(t, "dict[str]", stripTypeStr("dict[\tstr ]"))
}

func TestGenJSONFunctionVarargsBounds(t *testing.T) {
	fn := &Function{
		NamedObject: NamedObject{Name: "files"},
		Returns:     Type{Raw: "file"},
		Varargs: &VarArgs{
			ArgBase:    ArgBase{NamedObject: NamedObject{Name: "sources"}, Type: Type{Raw: "str"}},
			MinVarargs: 0,
			MaxVarargs: 2,
		},
	}
	out := genJSONFunction(fn)
	require.NotNil(t, out.Varargs)
	// an explicit zero bound stays unset in the output
	require.Nil(t, out.Varargs.MinVarargs)
	require.NotNil(t, out.Varargs.MaxVarargs)
	require.Equal(t, 2, *out.Varargs.MaxVarargs)
}

func TestWriteDepfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refman.d")
	require.NoError(t, WriteDepfile(path, "RefMan.md", []string{"b.yaml", "a file.yaml"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "RefMan.md: \\\n    a\\ file.yaml \\\n    b.yaml\n", string(raw))
}
