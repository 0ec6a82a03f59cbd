package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/corpus"
	"github.com/mdocs/mdocs/internal/lint"
	"github.com/mdocs/mdocs/internal/model"
	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
	"github.com/mdocs/mdocs/internal/site"
)

type PageSummary struct {
	Name             string `json:"name"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
}

type PageDetail struct {
	Name string            `json:"name"`
	Meta model.FrontMatter `json:"meta"`
	Body string            `json:"body"`
	HTML string            `json:"html"`
	TOC  []site.Heading    `json:"toc,omitempty"`
}

type Status struct {
	Title       string    `json:"title"`
	Pages       int       `json:"pages"`
	LastBuildID string    `json:"last_build_id,omitempty"`
	LastBuildAt time.Time `json:"last_build_at,omitempty"`
}

// DocsService keeps the live view of the corpus for the preview server:
// pages, sitemap, current lint findings and the last build. Rendered
// HTML is cached in an expirable LRU invalidated on page change.
type DocsService struct {
	cfg     *config.Config
	builder *site.Builder
	search  *site.SearchRepo
	render  *site.Renderer
	tags    *site.TagSubstituter

	mu        sync.RWMutex
	corpus    *corpus.Corpus
	sitemap   *model.Sitemap
	diags     []model.Diagnostic
	lastBuild *site.BuildResult

	cache *expirable.LRU[string, string]
}

type DocsOption func(s *DocsService)

func WithBuilder(b *site.Builder) DocsOption {
	return func(s *DocsService) {
		s.builder = b
	}
}

func WithSearchRepo(repo *site.SearchRepo) DocsOption {
	return func(s *DocsService) {
		s.search = repo
	}
}

func WithTagSubstituter(tags *site.TagSubstituter) DocsOption {
	return func(s *DocsService) {
		s.tags = tags
	}
}

func NewDocsService(cfg *config.Config, opts ...DocsOption) *DocsService {
	s := &DocsService{
		cfg:    cfg,
		render: site.NewRenderer(),
		cache:  expirable.NewLRU[string, string](1024, nil, time.Hour),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload re-reads the corpus and sitemap from disk and re-runs lint.
func (s *DocsService) Reload(ctx context.Context) error {
	c, err := corpus.Load(ctx, corpus.LoadConfig{
		Dir:    s.cfg.Corpus.Dir,
		Ignore: s.cfg.Corpus.Ignore,
	})
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(s.cfg.Corpus.Sitemap)
	if err != nil {
		return fmt.Errorf("read sitemap: %w", err)
	}
	sitemap, err := corpus.ParseSitemap(raw)
	if err != nil {
		return err
	}
	opts := lint.Options{Ignore: s.cfg.Corpus.Ignore}
	diags := lint.Run(ctx, c, sitemap, opts)
	model.SortDiagnostics(diags)

	s.mu.Lock()
	s.corpus = c
	s.sitemap = sitemap
	s.diags = diags
	s.mu.Unlock()
	s.cache.Purge()
	logutil.GetLogger(ctx).Info("corpus reloaded",
		zap.Int("pages", len(c.Pages())),
		zap.Int("diagnostics", len(diags)))
	return nil
}

func (s *DocsService) ListPages(ctx context.Context) ([]PageSummary, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.corpus == nil {
		return nil, appErr.ErrInternal
	}
	out := make([]PageSummary, 0, len(s.corpus.Pages()))
	for _, page := range s.corpus.Pages() {
		out = append(out, PageSummary{
			Name:             page.Name,
			Title:            page.Title(),
			ShortDescription: page.Meta.ShortDescription,
		})
	}
	return out, nil
}

func (s *DocsService) GetPage(ctx context.Context, name string) (*PageDetail, error) {
	s.mu.RLock()
	c := s.corpus
	s.mu.RUnlock()
	if c == nil {
		return nil, appErr.ErrInternal
	}
	page, ok := c.Page(name)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	html, cached := s.cache.Get(name)
	if !cached {
		body := page.Body
		if expanded, err := corpus.ExpandIncludes(body, c.ReadFile); err == nil {
			body = expanded
		}
		if s.tags != nil {
			body, _ = s.tags.Substitute(name, body)
		}
		var err error
		html, err = s.render.Render(body)
		if err != nil {
			return nil, err
		}
		s.cache.Add(name, html)
	} else {
		logutil.GetLogger(ctx).Debug("render cache hit", zap.String("page", name))
	}
	return &PageDetail{
		Name: name,
		Meta: page.Meta,
		Body: page.Body,
		HTML: html,
		TOC:  s.render.Headings(page.Body),
	}, nil
}

func (s *DocsService) Sitemap(ctx context.Context) (*model.Sitemap, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sitemap == nil {
		return nil, appErr.ErrInternal
	}
	return s.sitemap, nil
}

func (s *DocsService) Diagnostics(ctx context.Context) []model.Diagnostic {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Diagnostic(nil), s.diags...)
}

func (s *DocsService) Search(ctx context.Context, query string, limit uint) ([]site.SearchResult, error) {
	if s.search == nil {
		return []site.SearchResult{}, nil
	}
	return s.search.Search(ctx, query, limit)
}

func (s *DocsService) Status(ctx context.Context) Status {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Title: s.cfg.Site.Title}
	if s.corpus != nil {
		st.Pages = len(s.corpus.Pages())
	}
	if s.lastBuild != nil {
		st.LastBuildID = s.lastBuild.BuildID
		st.LastBuildAt = s.lastBuild.BuiltAt
	}
	return st
}

// Build runs a full site build and refreshes the live state.
func (s *DocsService) Build(ctx context.Context) (*site.BuildResult, error) {
	if s.builder == nil {
		return nil, fmt.Errorf("no builder configured: %w", appErr.ErrInternal)
	}
	res, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastBuild = res
	s.diags = res.Diagnostics
	s.mu.Unlock()
	return res, nil
}

// UpdatePage validates and writes a page source file. The front matter
// must parse before anything touches disk.
func (s *DocsService) UpdatePage(ctx context.Context, name, content string) error {
	if !strings.HasSuffix(name, ".md") || strings.Contains(name, "..") {
		return appErr.ErrInvalid
	}
	if _, _, _, _, err := corpus.ParseFrontMatter([]byte(content)); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
	}
	path := filepath.Join(s.cfg.Corpus.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	s.cache.Remove(name)
	logutil.GetLogger(ctx).Info("page updated", zap.String("page", name))
	return s.Reload(ctx)
}

// Invalidate drops cached renders for the given pages.
func (s *DocsService) Invalidate(names []string) {
	for _, name := range names {
		s.cache.Remove(name)
	}
}
