package model

import "strings"

type SitemapNode struct {
	// File is the page file name, or a verbatim placeholder line such as
	// "@REFMAN_PLACEHOLDER@".
	File     string         `json:"file"`
	Children []*SitemapNode `json:"children,omitempty"`
}

func (n *SitemapNode) IsPlaceholder() bool {
	return strings.HasPrefix(n.File, "@") && strings.HasSuffix(n.File, "@")
}

type Sitemap struct {
	Roots []*SitemapNode `json:"roots"`
	// Lines keeps the raw input so a re-serialize preserves it exactly.
	Lines []string `json:"-"`
}

// Walk visits every node depth-first.
func (s *Sitemap) Walk(fn func(node *SitemapNode, depth int)) {
	var visit func(nodes []*SitemapNode, depth int)
	visit = func(nodes []*SitemapNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(s.Roots, 0)
}

// Files returns every non-placeholder file in document order.
func (s *Sitemap) Files() []string {
	files := make([]string, 0, len(s.Lines))
	s.Walk(func(node *SitemapNode, depth int) {
		if !node.IsPlaceholder() {
			files = append(files, node.File)
		}
	})
	return files
}
