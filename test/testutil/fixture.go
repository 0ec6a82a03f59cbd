package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdocs/mdocs/internal/config"
)

// WriteCorpus lays out a small documentation tree in a temp dir and
// returns a config pointing at it. The store and search index also live
// under temp dirs tied to the test.
func WriteCorpus(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.md":    "---\ntitle: Home\nshort-description: The entry page\n...\n\n# Welcome\n\nStart here.\n",
		"Users.md":    "---\ntitle: Users\n...\n\n{{ snippet.md }}\n",
		"snippet.md":  "Included text about users.\n",
		"sitemap.txt": "index.md\n\tUsers.md\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return &config.Config{
		Corpus: config.CorpusConfig{
			Dir:     dir,
			Sitemap: filepath.Join(dir, "sitemap.txt"),
			Ignore:  []string{"snippet.md"},
		},
		Site: config.SiteConfig{
			Title:   "Test Docs",
			BaseURL: "/",
			Store: config.FileStoreConfig{
				Type: "local",
				Data: map[string]interface{}{"dir": t.TempDir()},
			},
		},
		Search: config.SearchConfig{DBPath: filepath.Join(t.TempDir(), "index.db")},
	}
}
