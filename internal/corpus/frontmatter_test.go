package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdocs/mdocs/internal/model"
	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

func TestParseFrontMatter_Basic(t *testing.T) {
	raw := []byte(`---
title: Release 0.55.0
short-description: Release notes for 0.55.0
authors:
  - name: Jussi Pakkanen
    email: jpakkane@gmail.com
    years: [2012, 2013]
    has-copyright: true
...

# New features
`)
	meta, hasMeta, body, metaEnd, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	require.True(t, hasMeta)
	require.Equal(t, "Release 0.55.0", meta.Title)
	require.Equal(t, "Release notes for 0.55.0", meta.ShortDescription)
	require.Len(t, meta.Authors, 1)
	require.Equal(t, "Jussi Pakkanen", meta.Authors[0].Name)
	require.Equal(t, []int{2012, 2013}, meta.Authors[0].Years)
	require.True(t, meta.Authors[0].HasCopyright)
	require.Equal(t, 9, metaEnd)
	require.Equal(t, "\n# New features\n", body)
}

func TestParseFrontMatter_NoBlock(t *testing.T) {
	meta, hasMeta, body, metaEnd, err := ParseFrontMatter([]byte("# Heading\n\nText.\n"))
	require.NoError(t, err)
	require.False(t, hasMeta)
	require.Equal(t, 0, metaEnd)
	require.Equal(t, "# Heading\n\nText.\n", body)
	require.Empty(t, meta.Title)
}

func TestParseFrontMatter_DashTerminator(t *testing.T) {
	_, hasMeta, body, _, err := ParseFrontMatter([]byte("---\ntitle: X\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, hasMeta)
	require.Equal(t, "body\n", body)
}

func TestParseFrontMatter_Unterminated(t *testing.T) {
	_, hasMeta, _, _, err := ParseFrontMatter([]byte("---\ntitle: X\nbody\n"))
	require.True(t, hasMeta)
	require.ErrorIs(t, err, appErr.ErrBadFrontMatter)
}

func TestParseFrontMatter_InvalidYAML(t *testing.T) {
	_, hasMeta, _, _, err := ParseFrontMatter([]byte("---\ntitle: [unclosed\n...\nbody\n"))
	require.True(t, hasMeta)
	require.ErrorIs(t, err, appErr.ErrBadFrontMatter)
}

func TestParseFrontMatter_CRLFAndBOM(t *testing.T) {
	raw := append(append([]byte{}, utf8BOM...), []byte("---\r\ntitle: X\r\n...\r\nbody\r\n")...)
	meta, hasMeta, body, _, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	require.True(t, hasMeta)
	require.Equal(t, "X", meta.Title)
	require.Equal(t, "body\n", body)
}

func TestParseFrontMatter_UnknownKeysPreserved(t *testing.T) {
	raw := []byte("---\ntitle: X\ncustom-key: hello\n...\n")
	meta, _, _, _, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	require.Equal(t, "hello", meta.Extra["custom-key"])

	out, err := SerializeFrontMatter(meta)
	require.NoError(t, err)
	require.Contains(t, string(out), "custom-key: hello")
	require.Contains(t, string(out), "title: X")
}

func TestSerializeFrontMatter_RoundTrip(t *testing.T) {
	no := false
	meta := model.FrontMatter{
		Title:            "Users",
		ShortDescription: "Projects using the build system",
		RenderSubpages:   &no,
	}
	out, err := SerializeFrontMatter(meta)
	require.NoError(t, err)

	parsed, hasMeta, _, _, err := ParseFrontMatter(out)
	require.NoError(t, err)
	require.True(t, hasMeta)
	require.Equal(t, meta.Title, parsed.Title)
	require.Equal(t, meta.ShortDescription, parsed.ShortDescription)
	require.NotNil(t, parsed.RenderSubpages)
	require.False(t, parsed.SubpagesEnabled())
}

func TestSubpagesEnabled_DefaultTrue(t *testing.T) {
	require.True(t, model.FrontMatter{}.SubpagesEnabled())
}
