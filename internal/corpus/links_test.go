package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdocs/mdocs/internal/model"
)

func TestExtractLinks_Classification(t *testing.T) {
	page := &model.Page{
		Name: "index.md",
		Body: `Intro text.

See the [tutorial](Tutorial.md) and the [home page](https://mesonbuild.com/).

![diagram](images/diagram.png)

Skip [fragment](#section) and [mail](mailto:dev@example.com).
`,
	}
	links := ExtractLinks(page)
	require.Len(t, links, 3)

	require.Equal(t, "Tutorial.md", links[0].Target)
	require.Equal(t, "tutorial", links[0].Text)
	require.False(t, links[0].External)
	require.Equal(t, 3, links[0].Line)

	require.Equal(t, "https://mesonbuild.com/", links[1].Target)
	require.True(t, links[1].External)

	require.Equal(t, "images/diagram.png", links[2].Target)
	require.False(t, links[2].External)
	require.Equal(t, 5, links[2].Line)
}

func TestExtractLinks_LineOffsetWithFrontMatter(t *testing.T) {
	raw := []byte("---\ntitle: X\n...\n[a link](Other.md)\n")
	page := &model.Page{Name: "x.md"}
	var err error
	page.Meta, page.HasMeta, page.Body, page.MetaEnd, err = ParseFrontMatter(raw)
	require.NoError(t, err)

	links := ExtractLinks(page)
	require.Len(t, links, 1)
	require.Equal(t, 4, links[0].Line)
}

func TestExtractLinks_AutoLink(t *testing.T) {
	page := &model.Page{Name: "x.md", Body: "Visit <https://example.com> now.\n"}
	links := ExtractLinks(page)
	require.Len(t, links, 1)
	require.True(t, links[0].External)
	require.Equal(t, "https://example.com", links[0].Target)
}
