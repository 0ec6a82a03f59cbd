package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/corpus"
)

// ExternalLink is one http(s) link occurrence in the corpus.
type ExternalLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Page string `json:"page"`
	Line int    `json:"line"`
}

type Failure struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Page   string `json:"page"`
	Status int    `json:"status,omitempty"`
	Err    string `json:"err,omitempty"`
}

// String matches the original reporter format: "name" url status.
func (f Failure) String() string {
	if f.Err != "" {
		return fmt.Sprintf("%q %s %s", f.Name, f.URL, f.Err)
	}
	return fmt.Sprintf("%q %s %d", f.Name, f.URL, f.Status)
}

// CollectLinks gathers the external links of the given pages. When pages
// is empty the whole corpus is scanned.
func CollectLinks(c *corpus.Corpus, pages []string) []ExternalLink {
	selected := c.Pages()
	if len(pages) > 0 {
		selected = selected[:0:0]
		for _, name := range pages {
			if p, ok := c.Page(name); ok {
				selected = append(selected, p)
			}
		}
	}
	var links []ExternalLink
	for _, page := range selected {
		for _, link := range corpus.ExtractLinks(page) {
			if !link.External {
				continue
			}
			links = append(links, ExternalLink{
				Name: link.Text,
				URL:  link.Target,
				Page: page.Name,
				Line: link.Line,
			})
		}
	}
	return links
}

type Checker struct {
	client   *http.Client
	workers  int
	timeout  time.Duration
	cache    *Cache
	excludes []string
}

type Option func(c *Checker)

func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithCache(cache *Cache) Option {
	return func(c *Checker) {
		c.cache = cache
	}
}

func WithExcludes(patterns []string) Option {
	return func(c *Checker) {
		c.excludes = patterns
	}
}

func WithClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		client:  &http.Client{},
		workers: 8,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) excluded(url string) bool {
	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, url); err == nil && ok {
			return true
		}
	}
	return false
}

// Check fetches every distinct URL once with a bounded worker pool and
// returns the failures. Cached successes fresher than the cache TTL are
// not re-fetched; failures are always re-checked.
func (c *Checker) Check(ctx context.Context, links []ExternalLink) []Failure {
	type task struct {
		link ExternalLink
	}
	seen := make(map[string]struct{}, len(links))
	tasks := make([]task, 0, len(links))
	for _, link := range links {
		if _, dup := seen[link.URL]; dup {
			continue
		}
		seen[link.URL] = struct{}{}
		if c.excluded(link.URL) {
			continue
		}
		if c.cache != nil && c.cache.IsFresh(link.URL) {
			continue
		}
		tasks = append(tasks, task{link: link})
	}

	var (
		mu       sync.Mutex
		failures []Failure
		wg       sync.WaitGroup
	)
	jobs := make(chan task)
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				failure := c.fetch(ctx, t.link)
				if failure != nil {
					mu.Lock()
					failures = append(failures, *failure)
					mu.Unlock()
				}
			}
		}()
	}
loop:
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()
	return failures
}

func (c *Checker) fetch(ctx context.Context, link ExternalLink) *Failure {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, link.URL, nil)
	if err != nil {
		return &Failure{Name: link.Name, URL: link.URL, Page: link.Page, Err: err.Error()}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.record(ctx, link.URL, false, 0)
		return &Failure{Name: link.Name, URL: link.URL, Page: link.Page, Err: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		c.record(ctx, link.URL, false, resp.StatusCode)
		return &Failure{Name: link.Name, URL: link.URL, Page: link.Page, Status: resp.StatusCode}
	}
	c.record(ctx, link.URL, true, resp.StatusCode)
	return nil
}

func (c *Checker) record(ctx context.Context, url string, ok bool, code int) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(url, ok, code); err != nil {
		logutil.GetLogger(ctx).Warn("update link cache failed", zap.String("url", url), zap.Error(err))
	}
}
