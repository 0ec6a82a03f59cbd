package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChecker_ReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/redirected":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	checker := NewChecker(WithWorkers(2), WithTimeout(5*time.Second))
	failures := checker.Check(context.Background(), []ExternalLink{
		{Name: "good", URL: srv.URL + "/ok", Page: "a.md"},
		{Name: "fine", URL: srv.URL + "/redirected", Page: "a.md"},
		{Name: "broken", URL: srv.URL + "/gone", Page: "b.md"},
	})
	require.Len(t, failures, 1)
	require.Equal(t, "broken", failures[0].Name)
	require.Equal(t, http.StatusNotFound, failures[0].Status)
	require.Equal(t, `"broken" `+srv.URL+`/gone 404`, failures[0].String())
}

func TestChecker_DeduplicatesURLs(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewChecker(WithWorkers(4))
	failures := checker.Check(context.Background(), []ExternalLink{
		{Name: "one", URL: srv.URL, Page: "a.md"},
		{Name: "two", URL: srv.URL, Page: "b.md"},
	})
	require.Empty(t, failures)
	require.Equal(t, int64(1), hits.Load())
}

func TestChecker_Excludes(t *testing.T) {
	checker := NewChecker(WithExcludes([]string{"https://flaky.example.com/**"}))
	failures := checker.Check(context.Background(), []ExternalLink{
		{Name: "skipped", URL: "https://flaky.example.com/some/page", Page: "a.md"},
	})
	require.Empty(t, failures)
}

func TestChecker_ConnectionErrorReported(t *testing.T) {
	checker := NewChecker(WithTimeout(2 * time.Second))
	failures := checker.Check(context.Background(), []ExternalLink{
		{Name: "dead", URL: "http://127.0.0.1:1/nope", Page: "a.md"},
	})
	require.Len(t, failures, 1)
	require.NotEmpty(t, failures[0].Err)
}

func TestCache_FreshSuccessSkipsFetch(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "links.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewChecker(WithCache(cache))
	links := []ExternalLink{{Name: "page", URL: srv.URL, Page: "a.md"}}
	require.Empty(t, checker.Check(context.Background(), links))
	require.Equal(t, int64(1), hits.Load())

	// second run hits only the cache
	require.Empty(t, checker.Check(context.Background(), links))
	require.Equal(t, int64(1), hits.Load())
}

func TestCache_FailureNeverFresh(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "links.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Put("https://example.com/bad", false, 500))
	require.False(t, cache.IsFresh("https://example.com/bad"))

	require.NoError(t, cache.Put("https://example.com/good", true, 200))
	require.True(t, cache.IsFresh("https://example.com/good"))

	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.False(t, cache.IsFresh("https://example.com/good"))
}
