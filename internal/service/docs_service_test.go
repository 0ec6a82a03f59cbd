package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdocs/mdocs/internal/config"
	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
	"github.com/mdocs/mdocs/internal/site"
)

func writeDocsFixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.md":   "---\ntitle: Home\nshort-description: The entry page\n...\n\n# Welcome\n\nHello.\n",
		"Users.md":   "---\ntitle: Users\n...\n\n{{ snippet.md }}\n",
		"snippet.md": "Included text.\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitemap.txt"), []byte("index.md\n\tUsers.md\n"), 0o644))
	return &config.Config{
		Corpus: config.CorpusConfig{
			Dir:     dir,
			Sitemap: filepath.Join(dir, "sitemap.txt"),
			Ignore:  []string{"snippet.md"},
		},
		Site: config.SiteConfig{Title: "Test Docs", BaseURL: "/"},
	}
}

func newTestService(t *testing.T, opts ...DocsOption) *DocsService {
	t.Helper()
	s := NewDocsService(writeDocsFixture(t), opts...)
	require.NoError(t, s.Reload(context.Background()))
	return s
}

func TestDocsServiceListPages(t *testing.T) {
	s := newTestService(t)
	pages, err := s.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	// corpus order is sorted by name, uppercase first
	require.Equal(t, "Users.md", pages[0].Name)
	require.Equal(t, "index.md", pages[1].Name)
	require.Equal(t, "Home", pages[1].Title)
	require.Equal(t, "The entry page", pages[1].ShortDescription)
}

func TestDocsServiceGetPage(t *testing.T) {
	s := newTestService(t)
	page, err := s.GetPage(context.Background(), "Users.md")
	require.NoError(t, err)
	require.Equal(t, "Users", page.Meta.Title)
	// the raw body keeps the include placeholder, the HTML expands it
	require.Contains(t, page.Body, "{{ snippet.md }}")
	require.Contains(t, page.HTML, "Included text.")

	// second read comes from the render cache
	again, err := s.GetPage(context.Background(), "Users.md")
	require.NoError(t, err)
	require.Equal(t, page.HTML, again.HTML)

	index, err := s.GetPage(context.Background(), "index.md")
	require.NoError(t, err)
	require.Len(t, index.TOC, 1)
	require.Equal(t, "Welcome", index.TOC[0].Text)
	require.Equal(t, "welcome", index.TOC[0].ID)

	_, err = s.GetPage(context.Background(), "missing.md")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocsServiceGetPageTagSubstitution(t *testing.T) {
	tags := site.NewTagSubstituter(map[string]string{
		"executable": "RefMan_functions.html#executable",
	})
	s := NewDocsService(writeDocsFixture(t), WithTagSubstituter(tags))
	require.NoError(t, os.WriteFile(filepath.Join(s.cfg.Corpus.Dir, "Ref.md"), []byte("See [[executable]].\n"), 0o644))
	require.NoError(t, s.Reload(context.Background()))

	page, err := s.GetPage(context.Background(), "Ref.md")
	require.NoError(t, err)
	require.Contains(t, page.HTML, `href="RefMan_functions.html#executable"`)
}

func TestDocsServiceSitemap(t *testing.T) {
	s := newTestService(t)
	sitemap, err := s.Sitemap(context.Background())
	require.NoError(t, err)
	require.Len(t, sitemap.Roots, 1)
	require.Equal(t, "index.md", sitemap.Roots[0].File)
}

func TestDocsServiceUpdatePage(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, s.UpdatePage(ctx, "notes.txt", "hello"), appErr.ErrInvalid)
	require.ErrorIs(t, s.UpdatePage(ctx, "../escape.md", "hello"), appErr.ErrInvalid)
	require.ErrorIs(t, s.UpdatePage(ctx, "index.md", "---\ntitle: [broken\n...\n\nBody\n"), appErr.ErrInvalid)

	require.NoError(t, s.UpdatePage(ctx, "index.md", "---\ntitle: Updated\n...\n\nNew body.\n"))
	page, err := s.GetPage(ctx, "index.md")
	require.NoError(t, err)
	require.Equal(t, "Updated", page.Meta.Title)
	require.Contains(t, page.HTML, "New body.")
}

func TestDocsServiceUpdatePageCreatesNew(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.UpdatePage(ctx, "Fresh.md", "---\ntitle: Fresh\n...\n\nBrand new.\n"))
	page, err := s.GetPage(ctx, "Fresh.md")
	require.NoError(t, err)
	require.Equal(t, "Fresh", page.Meta.Title)
}

func TestDocsServiceStatus(t *testing.T) {
	s := newTestService(t)
	st := s.Status(context.Background())
	require.Equal(t, "Test Docs", st.Title)
	require.Equal(t, 2, st.Pages)
	require.Empty(t, st.LastBuildID)
}

func TestDocsServiceSearchWithoutIndex(t *testing.T) {
	s := newTestService(t)
	results, err := s.Search(context.Background(), "welcome", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDocsServiceInvalidate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	page, err := s.GetPage(ctx, "index.md")
	require.NoError(t, err)

	// edit behind the service's back, then invalidate
	path := filepath.Join(s.cfg.Corpus.Dir, "index.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Home\n...\n\nChanged content.\n"), 0o644))
	s.Invalidate([]string{"index.md"})
	require.NoError(t, s.Reload(ctx))

	again, err := s.GetPage(ctx, "index.md")
	require.NoError(t, err)
	require.NotEqual(t, page.HTML, again.HTML)
	require.Contains(t, again.HTML, "Changed content.")
}
