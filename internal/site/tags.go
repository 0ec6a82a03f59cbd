package site

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mdocs/mdocs/internal/model"
)

var tagRegex = regexp.MustCompile(`\[\[[#!]?@?[ \n\t]*[a-zA-Z0-9_]+[ \n\t]*(\.[ \n\t]*[a-zA-Z0-9_]+[ \n\t]*)*\]\]`)

const RuleRefmanLink = "refman-link"

// TagSubstituter resolves [[tag]] references against the link
// definitions emitted by the reference manual generator.
type TagSubstituter struct {
	defs map[string]string
}

func NewTagSubstituter(defs map[string]string) *TagSubstituter {
	if defs == nil {
		defs = map[string]string{}
	}
	return &TagSubstituter{defs: defs}
}

func LoadLinkDefs(path string) (*TagSubstituter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read link defs: %w", err)
	}
	defs := make(map[string]string)
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse link defs: %w", err)
	}
	return NewTagSubstituter(defs), nil
}

// Defs exposes the id to link-target map, e.g. for lint.
func (s *TagSubstituter) Defs() map[string]string {
	return s.defs
}

// Substitute rewrites the tags in a page body. Unknown references stay
// verbatim and come back as warnings.
//
// Three forms are understood: [[func]] becomes a code-styled link with
// a () suffix, [[@obj]] a code-styled link without it, and [[#func]]
// a bare link for use inside code blocks. [[!file_id]] expands to the
// raw generated filename.
func (s *TagSubstituter) Substitute(pageName, body string) (string, []model.Diagnostic) {
	var diags []model.Diagnostic
	out := tagRegex.ReplaceAllStringFunc(body, func(match string) string {
		id := strings.TrimSuffix(strings.TrimPrefix(match, "[["), "]]")
		id = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' {
				return -1
			}
			return r
		}, id)

		if strings.HasPrefix(id, "!") {
			if path, ok := s.defs[id]; ok {
				return path
			}
			diags = append(diags, unknownLink(pageName, id))
			return match
		}

		codeBlock := strings.HasPrefix(id, "#")
		id = strings.TrimPrefix(id, "#")
		dest, ok := s.defs[id]
		if !ok {
			diags = append(diags, unknownLink(pageName, id))
			return match
		}

		text := strings.TrimPrefix(id, "@")
		if !strings.HasPrefix(id, "@") {
			text += "()"
		}
		if codeBlock {
			return fmt.Sprintf(`<a href="%s">%s</a>`, dest, text)
		}
		return fmt.Sprintf(`<a href="%s"><code>%s</code></a>`, dest, text)
	})
	return out, diags
}

func unknownLink(pageName, id string) model.Diagnostic {
	return model.Diagnostic{
		Page:     pageName,
		Rule:     RuleRefmanLink,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("unknown-refman-link: %s", id),
	}
}
