package refman

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenFilename(t *testing.T) {
	require.Equal(t, "RefMan.md", genFilename("root", "md"))
	require.Equal(t, "RefMan_functions.md", genFilename("root.functions", "md"))
	require.Equal(t, "RefMan_module_fs_fsfile.html", genFilename("root.module.fs.fsfile", "html"))
	require.Equal(t, "RefMan_name.md", genFilename("root.01_name", "md"))
}

func TestBrief(t *testing.T) {
	require.Equal(t, "First sentence", Brief("First sentence. Second sentence.\nMore."))
	require.Equal(t, "No period here", Brief("No period here\nsecond line"))
	// tags keep the full first line so links are not cut in half
	require.Equal(t, "Returns a [[@str]] value.", Brief("Returns a [[@str]] value.\nDetails."))
}

func runGeneratorMD(t *testing.T) (map[string][]byte, string) {
	t.Helper()
	manual := loadResolvedManual(t)
	dir := t.TempDir()
	sitemapIn := filepath.Join(dir, "sitemap.txt")
	sitemapOut := filepath.Join(dir, "sitemap-out.txt")
	linkDefs := filepath.Join(dir, "links.json")
	require.NoError(t, os.WriteFile(sitemapIn, []byte("index.md\n\t@REFMAN_PLACEHOLDER@\n\tOther.md\n"), 0o644))

	pages := make(map[string][]byte)
	g := NewGeneratorMD(manual, dir, sitemapIn, sitemapOut,
		WithLinkDefs(linkDefs),
		WithWriteFunc(func(name string, data []byte) error {
			pages[name] = data
			return nil
		}))
	require.NoError(t, g.Generate(context.Background()))
	return pages, dir
}

func TestGeneratorMDPages(t *testing.T) {
	pages, _ := runGeneratorMD(t)

	require.Contains(t, pages, "RefMan.md")
	require.Contains(t, pages, "RefMan_functions.md")
	require.Contains(t, pages, "RefMan_elementary_str.md")
	require.Contains(t, pages, "RefMan_returned_exe.md")
	require.Contains(t, pages, "RefMan_builtin_machine.md")
	require.Contains(t, pages, "RefMan_module_fs.md")
	require.Contains(t, pages, "RefMan_module_fs_fsfile.md")

	funcs := string(pages["RefMan_functions.md"])
	require.Contains(t, funcs, "# executable()")
	require.Contains(t, funcs, "<b>target_name</b>")
	require.Contains(t, funcs, "*[required]*")

	exe := string(pages["RefMan_returned_exe.md"])
	require.Contains(t, exe, "# Executable target")
	require.Contains(t, exe, "## exe methods")
	// returned-by links point at the functions page anchors
	require.Contains(t, exe, `RefMan_functions.html#executable`)
}

func TestGeneratorMDSitemap(t *testing.T) {
	_, dir := runGeneratorMD(t)
	raw, err := os.ReadFile(filepath.Join(dir, "sitemap-out.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")

	require.Equal(t, "index.md", lines[0])
	require.Equal(t, "\tRefMan.md", lines[1])
	require.Equal(t, "\tOther.md", lines[len(lines)-1])
	require.Contains(t, lines, "\t\tRefMan_functions.md")
	// module subpages are nested one level deeper
	require.Contains(t, lines, "\t\t\t\tRefMan_module_fs_fsfile.md")
	require.NotContains(t, string(raw), "@REFMAN_PLACEHOLDER@")
}

func TestGeneratorMDLinkDefs(t *testing.T) {
	_, dir := runGeneratorMD(t)
	raw, err := os.ReadFile(filepath.Join(dir, "links.json"))
	require.NoError(t, err)
	var defs map[string]string
	require.NoError(t, json.Unmarshal(raw, &defs))

	require.Equal(t, "RefMan_functions.html#executable", defs["executable"])
	require.Equal(t, "RefMan_returned_exe.html", defs["@exe"])
	require.Equal(t, "RefMan_returned_exe.html#exefull_path", defs["exe.full_path"])
	require.Equal(t, "RefMan_functions.md", defs["!root.functions"])
}

func TestLinkToObject(t *testing.T) {
	manual := loadResolvedManual(t)
	g := NewGeneratorMD(manual, t.TempDir(), "", "")

	ref, err := g.objectFromRef("@exe")
	require.NoError(t, err)
	require.Equal(t, `<a href="RefMan_returned_exe.html"><ins><code>exe</code></ins></a>`, g.linkToObject(ref, ""))

	ref, err = g.objectFromRef("exe.full_path")
	require.NoError(t, err)
	require.Contains(t, g.linkToObject(ref, ""), "RefMan_returned_exe.html#exefull_path")

	ref, err = g.objectFromRef("executable")
	require.NoError(t, err)
	require.Contains(t, g.linkToObject(ref, ""), "RefMan_functions.html#executable")

	_, err = g.objectFromRef("nosuch")
	require.Error(t, err)
	_, err = g.objectFromRef("@nosuch")
	require.Error(t, err)
	_, err = g.objectFromRef("exe.nosuch")
	require.Error(t, err)
}

func TestRenderSignature(t *testing.T) {
	manual := loadResolvedManual(t)
	g := NewGeneratorMD(manual, t.TempDir(), "", "")

	sig := g.renderSignature(manual.Functions[0])
	require.True(t, strings.HasPrefix(sig, "# Creates a new executable"))
	require.Contains(t, sig, "executable(")
	require.Contains(t, sig, "<b>target_name</b>")
	require.Contains(t, sig, "sources</b>...")
	require.Contains(t, sig, "# Keyword arguments:")
	require.Contains(t, sig, "<i>[required]</i>")
	require.True(t, strings.HasSuffix(sig, ")"))

	noArgs := &Function{
		NamedObject: NamedObject{Name: "version", Description: "Version string."},
		Returns:     manual.Functions[0].Posargs[0].Type,
	}
	require.Contains(t, g.renderSignature(noArgs), "version()")
}

func TestGeneratorMDModulesDisabled(t *testing.T) {
	manual := loadResolvedManual(t)
	dir := t.TempDir()
	sitemapIn := filepath.Join(dir, "sitemap.txt")
	require.NoError(t, os.WriteFile(sitemapIn, []byte("@REFMAN_PLACEHOLDER@\n"), 0o644))

	pages := make(map[string][]byte)
	g := NewGeneratorMD(manual, dir, sitemapIn, filepath.Join(dir, "out.txt"),
		WithModules(false),
		WithWriteFunc(func(name string, data []byte) error {
			pages[name] = data
			return nil
		}))
	require.NoError(t, g.Generate(context.Background()))

	require.NotContains(t, pages, "RefMan_module_fs.md")
	require.NotContains(t, pages, "RefMan_module_fs_fsfile.md")
	require.Contains(t, pages, "RefMan_returned_exe.md")
}
