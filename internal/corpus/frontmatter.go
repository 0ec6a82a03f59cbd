package corpus

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdocs/mdocs/internal/model"
	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func normalize(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	return strings.ReplaceAll(string(raw), "\r\n", "\n")
}

// ParseFrontMatter splits a page into its YAML metadata block and body.
// A block is present iff the first line is exactly "---"; it ends at the
// first line that is exactly "..." or "---". metaEnd is the zero-based
// line index where the body starts.
func ParseFrontMatter(raw []byte) (meta model.FrontMatter, hasMeta bool, body string, metaEnd int, err error) {
	text := normalize(raw)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || lines[0] != "---" {
		return model.FrontMatter{}, false, text, 0, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == "..." || lines[i] == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return model.FrontMatter{}, true, "", 0, fmt.Errorf("%w: unterminated front-matter", appErr.ErrBadFrontMatter)
	}
	block := strings.Join(lines[1:end], "\n")
	body = strings.Join(lines[end+1:], "\n")
	metaEnd = end + 1
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return model.FrontMatter{}, true, body, metaEnd, fmt.Errorf("%w: %v", appErr.ErrBadFrontMatter, err)
	}
	return meta, true, body, metaEnd, nil
}

// SerializeFrontMatter renders the metadata block back to its on-disk
// form, terminated with "..." like the release-notes template.
func SerializeFrontMatter(meta model.FrontMatter) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	buf.WriteString("...\n")
	return buf.Bytes(), nil
}
