package refman

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManualFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"functions/executable.yaml": `
name: executable
description: Creates a new executable.
returns: exe

posargs:
  target_name:
    description: The unique name of the target.
    type: str

varargs:
  name: sources
  description: Input sources for the target.
  type: str | file

kwargs:
  install:
    description: Install the built target.
    type: bool
    default: false
  version:
    description: Target version.
    type: str
    since: 0.1.0
    required: true
`,
		"functions/library.yaml": `
name: library
description: Builds a library.
returns: exe
posargs_inherit: executable
varargs_inherit: executable
kwargs_inherit: executable
kwargs:
  install:
    description: Overrides the inherited description.
    type: bool
`,
		"elementary/str.yaml": `
name: str
long_name: String
description: A string value.
`,
		"elementary/bool.yaml": `
name: bool
long_name: Boolean
description: A boolean value.
`,
		"elementary/file.yaml": `
name: file
long_name: File
description: A file handle.
`,
		"objects/exe.yaml": `
name: exe
long_name: Executable target
description: Result of executable().
methods:
  - name: full_path
    description: Absolute path of the output.
    returns: str
`,
		"builtins/machine.yaml": `
name: machine
long_name: Machine information
description: Holds host machine details.
`,
		"modules/fs/module.yaml": `
name: fs
long_name: Filesystem module
description: File system helpers.
methods:
  - name: read
    description: Reads a file.
    returns: str
`,
		"modules/fs/fsfile.yaml": `
name: fsfile
long_name: Filesystem file
description: A file opened by the fs module.
`,
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func loadResolvedManual(t *testing.T) *ReferenceManual {
	t.Helper()
	dir := writeManualFixture(t)
	loader := NewLoader(dir, true)
	manual, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, Resolve(manual))
	return manual
}

func TestLoaderLoad(t *testing.T) {
	dir := writeManualFixture(t)
	loader := NewLoader(dir, true)
	manual, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, manual.Functions, 2)
	exe := manual.Functions[0]
	require.Equal(t, "executable", exe.Name)
	require.Equal(t, "exe", exe.Returns.Raw)
	require.Len(t, exe.Posargs, 1)
	require.Equal(t, "target_name", exe.Posargs[0].Name)
	require.NotNil(t, exe.Varargs)
	require.Equal(t, -1, exe.Varargs.MinVarargs)
	require.True(t, exe.ArgFlattening)

	// bool scalar defaults come back as their text form
	require.Equal(t, "false", exe.Kwargs["install"].Default)
	require.True(t, exe.Kwargs["version"].Required)
	require.Equal(t, "0.1.0", exe.Kwargs["version"].Since)

	// str kwargs_inherit is treated as a single-element list
	require.Equal(t, []string{"executable"}, []string(manual.Functions[1].KwargsInherit))

	require.Len(t, manual.Objects, 7)
	require.Greater(t, len(loader.InputFiles()), 5)
}

func TestLoaderModuleObjects(t *testing.T) {
	manual := loadResolvedManual(t)
	var fsfile *Object
	for _, obj := range manual.Objects {
		if obj.Name == "fsfile" {
			fsfile = obj
		}
	}
	require.NotNil(t, fsfile)
	require.Equal(t, ObjectTypeReturned, fsfile.ObjType)
	require.NotNil(t, fsfile.DefinedByModule)
	require.Equal(t, "fs", fsfile.DefinedByModule.Name)
}

func TestLoaderStrictRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "functions"), 0o755))
	body := "name: f\ndescription: A function.\nreturns: void\nbogus_key: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "functions", "f.yaml"), []byte(body), 0o644))

	_, err := NewLoader(dir, true).Load(context.Background())
	require.Error(t, err)

	_, err = NewLoader(dir, false).Load(context.Background())
	require.NoError(t, err)
}

func TestLoaderMissingDirsTolerated(t *testing.T) {
	manual, err := NewLoader(t.TempDir(), true).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, manual.Functions)
	require.Empty(t, manual.Objects)
}

func TestLoaderRequiredFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "functions"), 0o755))
	body := "name: f\nreturns: void\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "functions", "f.yaml"), []byte(body), 0o644))
	_, err := NewLoader(dir, true).Load(context.Background())
	require.ErrorContains(t, err, "no description")
}
