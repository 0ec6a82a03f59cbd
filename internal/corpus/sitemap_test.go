package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

const sampleSitemap = `index.md
	Users.md
	Tutorial.md
		Quick-guide.md
	@REFMAN_PLACEHOLDER@
Contributing.md
`

func TestParseSitemap_Tree(t *testing.T) {
	s, err := ParseSitemap([]byte(sampleSitemap))
	require.NoError(t, err)
	require.Len(t, s.Roots, 2)
	require.Equal(t, "index.md", s.Roots[0].File)
	require.Len(t, s.Roots[0].Children, 3)
	require.Equal(t, "Tutorial.md", s.Roots[0].Children[1].File)
	require.Equal(t, "Quick-guide.md", s.Roots[0].Children[1].Children[0].File)
	require.True(t, s.Roots[0].Children[2].IsPlaceholder())
	require.Equal(t, "Contributing.md", s.Roots[1].File)
}

func TestParseSitemap_Files_SkipsPlaceholders(t *testing.T) {
	s, err := ParseSitemap([]byte(sampleSitemap))
	require.NoError(t, err)
	require.Equal(t, []string{"index.md", "Users.md", "Tutorial.md", "Quick-guide.md", "Contributing.md"}, s.Files())
}

func TestParseSitemap_IndentJump(t *testing.T) {
	_, err := ParseSitemap([]byte("index.md\n\t\tdeep.md\n"))
	require.ErrorIs(t, err, appErr.ErrBadSitemap)
}

func TestSerializeSitemap_RoundTrip(t *testing.T) {
	s, err := ParseSitemap([]byte(sampleSitemap))
	require.NoError(t, err)
	require.Equal(t, sampleSitemap, string(SerializeSitemap(s)))
}
