package site

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testDefs() map[string]string {
	return map[string]string{
		"executable":    "RefMan_functions.html#executable",
		"exe.full_path": "RefMan_returned_exe.html#exefull_path",
		"@exe":          "RefMan_returned_exe.html",
		"!root.functions": "RefMan_functions.md",
	}
}

func TestSubstituteFunction(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "Call [[executable]] to build.")
	require.Empty(t, diags)
	require.Equal(t, `Call <a href="RefMan_functions.html#executable"><code>executable()</code></a> to build.`, out)
}

func TestSubstituteMethodAndObject(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "[[exe.full_path]] on an [[@exe]]")
	require.Empty(t, diags)
	require.Contains(t, out, `<a href="RefMan_returned_exe.html#exefull_path"><code>exe.full_path()</code></a>`)
	// object form has no call parens
	require.Contains(t, out, `<a href="RefMan_returned_exe.html"><code>exe</code></a>`)
}

func TestSubstituteCodeForm(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "[[#executable]]('main')")
	require.Empty(t, diags)
	// no <code> wrap inside code blocks
	require.Equal(t, `<a href="RefMan_functions.html#executable">executable()</a>('main')`, out)
}

func TestSubstituteFileID(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "See [[!root.functions]] for details.")
	require.Empty(t, diags)
	require.Equal(t, "See RefMan_functions.md for details.", out)
}

func TestSubstituteWhitespaceInTag(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "[[ exe .\n\tfull_path ]]")
	require.Empty(t, diags)
	require.Contains(t, out, "exefull_path")
}

func TestSubstituteUnknownTagKeptVerbatim(t *testing.T) {
	s := NewTagSubstituter(testDefs())
	out, diags := s.Substitute("p.md", "See [[nosuch]] here.")
	require.Equal(t, "See [[nosuch]] here.", out)
	require.Len(t, diags, 1)
	require.Equal(t, RuleRefmanLink, diags[0].Rule)
	require.Contains(t, diags[0].Message, "unknown-refman-link: nosuch")
}
