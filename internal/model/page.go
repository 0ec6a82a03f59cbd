package model

import (
	"path"
	"strings"
)

type Author struct {
	Name         string `yaml:"name" json:"name"`
	Email        string `yaml:"email" json:"email"`
	Years        []int  `yaml:"years" json:"years"`
	HasCopyright bool   `yaml:"has-copyright" json:"has_copyright"`
}

// FrontMatter is the YAML metadata block at the top of a page. Unknown
// keys are kept in Extra so a serialize round-trip does not lose them.
type FrontMatter struct {
	Title            string                 `yaml:"title,omitempty" json:"title"`
	ShortDescription string                 `yaml:"short-description,omitempty" json:"short_description"`
	Authors          []Author               `yaml:"authors,omitempty" json:"authors,omitempty"`
	RenderSubpages   *bool                  `yaml:"render-subpages,omitempty" json:"render_subpages,omitempty"`
	Extra            map[string]interface{} `yaml:",inline" json:"-"`
}

// SubpagesEnabled reports whether sitemap children of the page get their
// own navigation entries. Defaults to true when the key is absent.
func (m FrontMatter) SubpagesEnabled() bool {
	if m.RenderSubpages == nil {
		return true
	}
	return *m.RenderSubpages
}

type Page struct {
	// Name is the corpus-relative path in slash form, e.g. "Users.md".
	Name    string      `json:"name"`
	Meta    FrontMatter `json:"meta"`
	HasMeta bool        `json:"has_meta"`
	// MetaErr holds the front-matter parse failure, if any. Loading keeps
	// going so lint can report it.
	MetaErr error  `json:"-"`
	Body    string `json:"body"`
	Raw     []byte `json:"-"`
	// Path is the absolute location on disk.
	Path string `json:"-"`
	// MetaEnd is the zero-based line index where the body starts.
	MetaEnd int `json:"-"`
}

// Title returns the front-matter title, falling back to the file name
// with dashes replaced by spaces.
func (p *Page) Title() string {
	if p.Meta.Title != "" {
		return p.Meta.Title
	}
	base := path.Base(p.Name)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ReplaceAll(base, "-", " ")
}
