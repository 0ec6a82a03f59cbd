package site

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSearchRepo(t *testing.T) *SearchRepo {
	t.Helper()
	repo, err := OpenSearchRepo(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testEntries() []IndexEntry {
	return []IndexEntry{
		{Name: "Users.md", Title: "Users", Description: "User pages", Content: "How to install the toolchain and run builds."},
		{Name: "Syntax.md", Title: "Syntax", Description: "Language syntax", Content: "Strings, arrays and dictionaries."},
	}
}

func TestSearchRepoIndexAndSearch(t *testing.T) {
	repo := newSearchRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Index(ctx, testEntries()))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	results, err := repo.Search(ctx, "install", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Users.md", results[0].Name)
	require.Contains(t, results[0].Snippet, "<b>install</b>")
	// bm25 ranks matching rows below zero
	require.Less(t, results[0].Rank, 0.0)
}

func TestSearchRepoReindexReplaces(t *testing.T) {
	repo := newSearchRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Index(ctx, testEntries()))
	require.NoError(t, repo.Index(ctx, testEntries()[:1]))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	results, err := repo.Search(ctx, "arrays", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchRepoRemove(t *testing.T) {
	repo := newSearchRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Index(ctx, testEntries()))
	require.NoError(t, repo.Remove(ctx, []string{"Users.md"}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSearchRepoEmptyQuery(t *testing.T) {
	repo := newSearchRepo(t)
	results, err := repo.Search(context.Background(), "  ", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSanitizeFTSQuery(t *testing.T) {
	require.Equal(t, "hello world", sanitizeFTSQuery(`hello "world"`))
	require.Equal(t, "a b", sanitizeFTSQuery("a*-() b"))
	require.Equal(t, "", sanitizeFTSQuery("  \"*\"  "))
}
