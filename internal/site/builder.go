package site

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/corpus"
	"github.com/mdocs/mdocs/internal/filestore"
	"github.com/mdocs/mdocs/internal/lint"
	"github.com/mdocs/mdocs/internal/model"
)

//go:embed templates/page.tmpl
var pageTemplateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageTemplateFS, "templates/page.tmpl"))

type Builder struct {
	cfg    *config.Config
	store  filestore.Store
	render *Renderer
	tags   *TagSubstituter
	search *SearchRepo
}

type BuilderOption func(b *Builder)

// WithTagSubstituter wires the refman link definitions in; without it
// tags stay verbatim and lint flags them.
func WithTagSubstituter(tags *TagSubstituter) BuilderOption {
	return func(b *Builder) {
		b.tags = tags
	}
}

func WithSearchRepo(repo *SearchRepo) BuilderOption {
	return func(b *Builder) {
		b.search = repo
	}
}

func NewBuilder(cfg *config.Config, store filestore.Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:    cfg,
		store:  store,
		render: NewRenderer(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type BuildResult struct {
	BuildID     string             `json:"build_id"`
	Pages       []string           `json:"pages"`
	Duration    time.Duration      `json:"duration"`
	Diagnostics []model.Diagnostic `json:"diagnostics"`
	BuiltAt     time.Time          `json:"built_at"`
}

type navEntry struct {
	Title    string
	Href     string
	Children []navEntry
}

type pageView struct {
	SiteTitle   string
	Title       string
	Description string
	Content     template.HTML
	Nav         []navEntry
	Authors     []model.Author
}

func htmlName(name string) string {
	return strings.TrimSuffix(name, ".md") + ".html"
}

// buildNav turns the sitemap into the navigation tree. Children of a
// page with render-subpages disabled fold into the parent: the pages
// still render, they just get no nav entries of their own.
func (b *Builder) buildNav(c *corpus.Corpus, nodes []*model.SitemapNode) []navEntry {
	var entries []navEntry
	for _, node := range nodes {
		if node.IsPlaceholder() {
			continue
		}
		entry := navEntry{Title: node.File, Href: htmlName(node.File)}
		subpages := true
		if page, ok := c.Page(node.File); ok {
			entry.Title = page.Title()
			subpages = page.Meta.SubpagesEnabled()
		}
		if subpages {
			entry.Children = b.buildNav(c, node.Children)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (b *Builder) save(ctx context.Context, key string, data []byte) error {
	return b.store.Save(ctx, key, filestore.BytesReader(data), int64(len(data)))
}

func (b *Builder) renderPage(ctx context.Context, c *corpus.Corpus, page *model.Page, nav []navEntry) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic

	body, err := corpus.ExpandIncludes(page.Body, c.ReadFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", page.Name, err)
	}
	if b.tags != nil {
		var tagDiags []model.Diagnostic
		body, tagDiags = b.tags.Substitute(page.Name, body)
		diags = append(diags, tagDiags...)
	}
	content, err := b.render.Render(body)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", page.Name, err)
	}

	var authors []model.Author
	for _, a := range page.Meta.Authors {
		if a.HasCopyright {
			authors = append(authors, a)
		}
	}
	view := pageView{
		SiteTitle:   b.cfg.Site.Title,
		Title:       page.Title(),
		Description: page.Meta.ShortDescription,
		Content:     template.HTML(content),
		Nav:         nav,
		Authors:     authors,
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("template %s: %w", page.Name, err)
	}
	if err := b.save(ctx, htmlName(page.Name), buf.Bytes()); err != nil {
		return nil, err
	}
	return diags, nil
}

type manifestEntry struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Build runs the whole pipeline: load, lint, render, store, index. Lint
// findings do not abort the build, they ride along in the result.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx)

	c, err := corpus.Load(ctx, corpus.LoadConfig{
		Dir:    b.cfg.Corpus.Dir,
		Ignore: b.cfg.Corpus.Ignore,
	})
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(b.cfg.Corpus.Sitemap)
	if err != nil {
		return nil, fmt.Errorf("read sitemap: %w", err)
	}
	sitemap, err := corpus.ParseSitemap(raw)
	if err != nil {
		return nil, err
	}

	lintOpts := lint.Options{Ignore: b.cfg.Corpus.Ignore}
	if b.tags != nil {
		lintOpts.LinkDefs = b.tags.defs
	}
	diags := lint.Run(ctx, c, sitemap, lintOpts)

	if err := b.store.Reset(ctx); err != nil {
		return nil, err
	}
	nav := b.buildNav(c, sitemap.Roots)

	res := &BuildResult{BuildID: uuid.NewString(), BuiltAt: start}
	var manifest []manifestEntry
	var entries []IndexEntry
	for _, name := range sitemap.Files() {
		page, ok := c.Page(name)
		if !ok {
			continue
		}
		pageDiags, err := b.renderPage(ctx, c, page, nav)
		if err != nil {
			return nil, err
		}
		diags = append(diags, pageDiags...)
		res.Pages = append(res.Pages, page.Name)
		manifest = append(manifest, manifestEntry{
			Name:        page.Name,
			Title:       page.Title(),
			Description: page.Meta.ShortDescription,
		})
		entries = append(entries, IndexEntry{
			Name:        page.Name,
			Title:       page.Title(),
			Description: page.Meta.ShortDescription,
			Content:     b.render.Text(page.Body),
		})
	}

	if err := b.copyAssets(ctx, c); err != nil {
		return nil, err
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	if err := b.save(ctx, "search.json", data); err != nil {
		return nil, err
	}

	if b.search != nil {
		if err := b.search.Index(ctx, entries); err != nil {
			return nil, err
		}
	}

	model.SortDiagnostics(diags)
	res.Diagnostics = diags
	res.Duration = time.Since(start)
	logger.Info("site built",
		zap.String("build_id", res.BuildID),
		zap.Int("pages", len(res.Pages)),
		zap.Int("diagnostics", len(diags)),
		zap.Duration("cost", res.Duration))
	return res, nil
}

// copyAssets stores every non-markdown corpus file verbatim, images
// and stylesheets mostly.
func (b *Builder) copyAssets(ctx context.Context, c *corpus.Corpus) error {
	for _, name := range c.Files() {
		if strings.HasSuffix(name, ".md") || name == filepath.Base(b.cfg.Corpus.Sitemap) {
			continue
		}
		data, ok := c.ReadFile(name)
		if !ok {
			continue
		}
		if err := b.save(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}
