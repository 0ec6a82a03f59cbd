package corpus

import (
	"fmt"
	"strings"

	"github.com/mdocs/mdocs/internal/model"
	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

// ParseSitemap parses the tab-indented sitemap tree. Depth is the number
// of leading tabs; a jump of more than one level is rejected. Placeholder
// lines (@...@) are kept verbatim as nodes.
func ParseSitemap(raw []byte) (*model.Sitemap, error) {
	text := normalize(raw)
	s := &model.Sitemap{Lines: strings.Split(text, "\n")}
	var stack []*model.SitemapNode
	for i, line := range s.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth := 0
		for depth < len(line) && line[depth] == '\t' {
			depth++
		}
		name := strings.TrimSpace(line[depth:])
		if depth > len(stack) {
			return nil, fmt.Errorf("%w: line %d: indent jumps from %d to %d", appErr.ErrBadSitemap, i+1, len(stack), depth)
		}
		node := &model.SitemapNode{File: name}
		stack = stack[:depth]
		if depth == 0 {
			s.Roots = append(s.Roots, node)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return s, nil
}

// SerializeSitemap renders the tree back to tab-indented lines.
func SerializeSitemap(s *model.Sitemap) []byte {
	var b strings.Builder
	s.Walk(func(node *model.SitemapNode, depth int) {
		b.WriteString(strings.Repeat("\t", depth))
		b.WriteString(node.File)
		b.WriteString("\n")
	})
	return []byte(b.String())
}
