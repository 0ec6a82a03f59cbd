package corpus

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/mdocs/mdocs/internal/model"
)

var linkParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

func isExternal(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// ExtractLinks walks the markdown AST and returns every link, image and
// autolink target with an approximate (1-based) line number in the file.
// Fragment-only and mailto targets are skipped.
func ExtractLinks(page *model.Page) []model.Link {
	source := []byte(page.Body)
	reader := text.NewReader(source)
	doc := linkParser.Parser().Parse(reader)

	lineStarts := []int{0}
	for i, c := range source {
		if c == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	lineAt := func(offset int) int {
		idx := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > offset }) - 1
		// file line = body line + front-matter lines, 1-based
		return page.MetaEnd + idx + 1
	}

	var links []model.Link
	blockStart := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			blockStart = n.Lines().At(0).Start
		}
		offset := blockStart
		if seg, ok := firstSegment(n); ok {
			offset = seg.Start
		}
		var target, label string
		switch node := n.(type) {
		case *ast.Link:
			target = string(node.Destination)
			label = string(node.Text(source))
		case *ast.Image:
			target = string(node.Destination)
			label = string(node.Text(source))
		case *ast.AutoLink:
			target = string(node.URL(source))
			label = target
		default:
			return ast.WalkContinue, nil
		}
		if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "mailto:") {
			return ast.WalkContinue, nil
		}
		links = append(links, model.Link{
			Text:     label,
			Target:   target,
			Line:     lineAt(offset),
			External: isExternal(target),
		})
		return ast.WalkContinue, nil
	})
	return links
}

func firstSegment(n ast.Node) (text.Segment, bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return t.Segment, true
		}
	}
	return text.Segment{}, false
}
