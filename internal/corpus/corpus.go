package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/model"
)

type LoadConfig struct {
	Dir string
	// Ignore patterns are matched with doublestar against the slash-form
	// relative name, e.g. "Release-notes-for-*.md".
	Ignore  []string
	Workers int
}

type Corpus struct {
	Dir   string
	pages []*model.Page
	byKey map[string]*model.Page
	// files holds every file under Dir (not just markdown), for link
	// resolution against images and other assets.
	files map[string]struct{}
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Load walks dir for markdown pages and parses each one. Front-matter
// failures are recorded on the page (MetaErr) so lint can report them;
// Load itself fails only on I/O errors.
func Load(ctx context.Context, cfg LoadConfig) (*Corpus, error) {
	c := &Corpus{
		Dir:   cfg.Dir,
		byKey: make(map[string]*model.Page),
		files: make(map[string]struct{}),
	}
	var names []string
	err := filepath.WalkDir(cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(cfg.Dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		c.files[name] = struct{}{}
		if !strings.HasSuffix(name, ".md") || ignored(name, cfg.Ignore) {
			return nil
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir: %w", err)
	}
	sort.Strings(names)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	pages := make([]*model.Page, len(names))
	errs := make([]error, len(names))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pages[idx], errs[idx] = loadPage(cfg.Dir, names[idx])
			}
		}()
	}
	for idx := range names {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", names[idx], err)
		}
	}
	c.pages = pages
	for _, p := range pages {
		c.byKey[p.Name] = p
	}
	logutil.GetLogger(ctx).Debug("corpus loaded", zap.String("dir", cfg.Dir), zap.Int("pages", len(pages)))
	return c, nil
}

func loadPage(dir, name string) (*model.Page, error) {
	abs := filepath.Join(dir, filepath.FromSlash(name))
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	page := &model.Page{Name: name, Raw: raw, Path: abs}
	page.Meta, page.HasMeta, page.Body, page.MetaEnd, page.MetaErr = ParseFrontMatter(raw)
	return page, nil
}

func (c *Corpus) Page(name string) (*model.Page, bool) {
	p, ok := c.byKey[name]
	return p, ok
}

func (c *Corpus) Pages() []*model.Page {
	return c.pages
}

// HasFile reports whether any file (markdown or asset) exists at the
// given corpus-relative slash path. Matching is case-sensitive.
func (c *Corpus) HasFile(name string) bool {
	_, ok := c.files[name]
	return ok
}

// Files returns every file name under the corpus dir.
func (c *Corpus) Files() []string {
	names := make([]string, 0, len(c.files))
	for name := range c.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile reads a corpus file by relative name, used for include
// expansion lookups.
func (c *Corpus) ReadFile(name string) ([]byte, bool) {
	if p, ok := c.byKey[name]; ok {
		return p.Raw, true
	}
	if !c.HasFile(name) {
		return nil, false
	}
	raw, err := os.ReadFile(filepath.Join(c.Dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, false
	}
	return raw, true
}
