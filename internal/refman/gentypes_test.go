package refman

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorTypes(t *testing.T) {
	manual := loadResolvedManual(t)
	out := filepath.Join(t.TempDir(), "types.txt")
	require.NoError(t, NewGeneratorTypes(manual, out, true).Generate())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(raw)

	require.Contains(t, text, "executable\n  posargs:\n    str\n  varargs:\n    file|str\n  kwargs:\n    install: bool\n    version: str\n  returns:\n    exe\n")
	// inherited args carry over to library
	require.Contains(t, text, "library\n  posargs:\n    str\n")
	require.Contains(t, text, "exe.full_path\n  returns:\n    str\n")
	require.Contains(t, text, "fs.read\n  returns:\n    str\n")

	// plain functions come before methods
	require.Less(t, strings.Index(text, "library\n"), strings.Index(text, "exe.full_path"))
}

func TestGeneratorTypesModulesDisabled(t *testing.T) {
	manual := loadResolvedManual(t)
	out := filepath.Join(t.TempDir(), "types.txt")
	require.NoError(t, NewGeneratorTypes(manual, out, false).Generate())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "fs.read")
	require.Contains(t, string(raw), "exe.full_path")
}

func TestCanonicalTypeSorting(t *testing.T) {
	require.Equal(t, "file|str", CanonicalType("str | file"))
	require.Equal(t, "list[int|str]", CanonicalType("list[str | int]"))
	require.Equal(t, "dict[str]|list[str]", CanonicalType("list[str] | dict[str]"))
}
