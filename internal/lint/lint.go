package lint

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/corpus"
	"github.com/mdocs/mdocs/internal/model"
)

type Options struct {
	// LinkDefs maps refman tag ids to generated link targets. When set,
	// unknown [[tag]] references are errors instead of warnings.
	LinkDefs map[string]string
	// Ignore carries the corpus ignore patterns so the sitemap
	// reachability rule does not flag pages that were skipped on load.
	Ignore []string
}

const (
	RuleFrontMatter     = "frontmatter"
	RuleFrontMatterKeys = "frontmatter-keys"
	RuleAuthors         = "authors"
	RuleRelativeLinks   = "relative-links"
	RuleIncludes        = "includes"
	RuleRefmanTags      = "refman-tags"
	RuleSitemap         = "sitemap"
)

var (
	anyTagRegex       = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)
	wellFormedTagTest = regexp.MustCompile(`^\[\[[#!]?@?\s*[a-zA-Z0-9_]+\s*(\.\s*[a-zA-Z0-9_]+\s*)*\]\]$`)
)

// Run validates the corpus and sitemap, returning sorted diagnostics.
func Run(ctx context.Context, c *corpus.Corpus, sitemap *model.Sitemap, opts Options) []model.Diagnostic {
	var diags []model.Diagnostic
	add := func(d model.Diagnostic) {
		diags = append(diags, d)
	}

	for _, page := range c.Pages() {
		checkFrontMatter(page, add)
		checkLinks(page, c, add)
		checkIncludes(page, c, add)
		checkRefmanTags(page, opts.LinkDefs, add)
	}
	if sitemap != nil {
		checkSitemap(c, sitemap, opts.Ignore, add)
	}

	model.SortDiagnostics(diags)
	logutil.GetLogger(ctx).Debug("lint finished",
		zap.Int("pages", len(c.Pages())),
		zap.Int("diagnostics", len(diags)),
	)
	return diags
}

func checkFrontMatter(page *model.Page, add func(model.Diagnostic)) {
	if page.MetaErr != nil {
		add(model.Diagnostic{
			Page: page.Name, Line: 1, Rule: RuleFrontMatter,
			Severity: model.SeverityError, Message: page.MetaErr.Error(),
		})
		return
	}
	if !page.HasMeta {
		return
	}
	if page.Meta.Title == "" {
		add(model.Diagnostic{
			Page: page.Name, Line: 1, Rule: RuleFrontMatterKeys,
			Severity: model.SeverityWarning, Message: "front-matter block has no title",
		})
	}
	for key := range page.Meta.Extra {
		add(model.Diagnostic{
			Page: page.Name, Line: 1, Rule: RuleFrontMatterKeys,
			Severity: model.SeverityWarning, Message: fmt.Sprintf("unknown front-matter key %q", key),
		})
	}
	for i, author := range page.Meta.Authors {
		if author.Name == "" {
			add(model.Diagnostic{
				Page: page.Name, Line: 1, Rule: RuleAuthors,
				Severity: model.SeverityWarning, Message: fmt.Sprintf("author %d has no name", i+1),
			})
		}
		if author.Email != "" && !strings.Contains(author.Email, "@") {
			add(model.Diagnostic{
				Page: page.Name, Line: 1, Rule: RuleAuthors,
				Severity: model.SeverityWarning, Message: fmt.Sprintf("author %q has malformed email %q", author.Name, author.Email),
			})
		}
		if author.HasCopyright && len(author.Years) == 0 {
			add(model.Diagnostic{
				Page: page.Name, Line: 1, Rule: RuleAuthors,
				Severity: model.SeverityWarning, Message: fmt.Sprintf("author %q claims copyright but lists no years", author.Name),
			})
		}
	}
}

func checkLinks(page *model.Page, c *corpus.Corpus, add func(model.Diagnostic)) {
	for _, link := range corpus.ExtractLinks(page) {
		if link.External {
			continue
		}
		target := link.Target
		if idx := strings.Index(target, "#"); idx >= 0 {
			target = target[:idx]
		}
		if target == "" {
			continue
		}
		resolved := path.Join(path.Dir(page.Name), target)
		if !c.HasFile(resolved) {
			add(model.Diagnostic{
				Page: page.Name, Line: link.Line, Rule: RuleRelativeLinks,
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("link target %q does not resolve to a corpus file", link.Target),
			})
		}
	}
}

func checkIncludes(page *model.Page, c *corpus.Corpus, add func(model.Diagnostic)) {
	for _, name := range corpus.ListIncludes(page.Body) {
		if !c.HasFile(name) {
			add(model.Diagnostic{
				Page: page.Name, Line: lineOf(page, "{{"+name), Rule: RuleIncludes,
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("include %q does not name a corpus file", name),
			})
		}
	}
	if _, err := corpus.ExpandIncludes(page.Body, c.ReadFile); err != nil {
		add(model.Diagnostic{
			Page: page.Name, Line: 1, Rule: RuleIncludes,
			Severity: model.SeverityError, Message: err.Error(),
		})
	}
}

func checkRefmanTags(page *model.Page, linkDefs map[string]string, add func(model.Diagnostic)) {
	severity := model.SeverityWarning
	if linkDefs != nil {
		severity = model.SeverityError
	}
	for lineIdx, line := range strings.Split(page.Body, "\n") {
		lineNo := page.MetaEnd + lineIdx + 1
		for _, tag := range anyTagRegex.FindAllString(line, -1) {
			if !wellFormedTagTest.MatchString(tag) {
				add(model.Diagnostic{
					Page: page.Name, Line: lineNo, Rule: RuleRefmanTags,
					Severity: severity, Message: fmt.Sprintf("malformed refman tag %s", tag),
				})
				continue
			}
			if linkDefs == nil {
				continue
			}
			id := normalizeTag(tag)
			if _, ok := linkDefs[id]; !ok {
				add(model.Diagnostic{
					Page: page.Name, Line: lineNo, Rule: RuleRefmanTags,
					Severity: severity, Message: fmt.Sprintf("unknown refman link %q", id),
				})
			}
		}
	}
}

// normalizeTag strips brackets, whitespace and the in-code-block marker,
// mirroring how tags are matched against the link-definitions map.
func normalizeTag(tag string) string {
	id := strings.TrimSuffix(strings.TrimPrefix(tag, "[["), "]]")
	id = strings.Join(strings.Fields(id), "")
	return strings.TrimPrefix(id, "#")
}

func matchesIgnore(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func checkSitemap(c *corpus.Corpus, sitemap *model.Sitemap, ignore []string, add func(model.Diagnostic)) {
	listed := make(map[string]struct{})
	for _, file := range sitemap.Files() {
		listed[file] = struct{}{}
		if _, ok := c.Page(file); ok {
			continue
		}
		// ignored pages are skipped on load but stay valid sitemap
		// targets as long as the file exists
		if matchesIgnore(file, ignore) && c.HasFile(file) {
			continue
		}
		add(model.Diagnostic{
			Page: file, Line: 0, Rule: RuleSitemap,
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("sitemap entry %q does not name an existing page", file),
		})
	}
	included := make(map[string]struct{})
	for _, page := range c.Pages() {
		for _, name := range corpus.ListIncludes(page.Body) {
			included[name] = struct{}{}
		}
	}
	for _, page := range c.Pages() {
		if _, ok := listed[page.Name]; ok {
			continue
		}
		if _, ok := included[page.Name]; ok {
			continue
		}
		add(model.Diagnostic{
			Page: page.Name, Line: 0, Rule: RuleSitemap,
			Severity: model.SeverityWarning,
			Message:  "page is not reachable from the sitemap",
		})
	}
}

func lineOf(page *model.Page, needle string) int {
	for i, line := range strings.Split(page.Body, "\n") {
		if strings.Contains(strings.Join(strings.Fields(line), ""), strings.Join(strings.Fields(needle), "")) {
			return page.MetaEnd + i + 1
		}
	}
	return 1
}
