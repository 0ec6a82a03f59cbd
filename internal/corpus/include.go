package corpus

import (
	"fmt"
	"regexp"
	"strings"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

var includeRegex = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// ExpandIncludes replaces {{ file.md }} placeholders with the named
// file's content, recursively. Lookup resolves names within the corpus.
// A missing file or an inclusion cycle is an error.
func ExpandIncludes(body string, lookup func(name string) ([]byte, bool)) (string, error) {
	return expandIncludes(body, lookup, nil)
}

func expandIncludes(body string, lookup func(name string) ([]byte, bool), chain []string) (string, error) {
	var expandErr error
	out := includeRegex.ReplaceAllStringFunc(body, func(match string) string {
		if expandErr != nil {
			return match
		}
		name := includeRegex.FindStringSubmatch(match)[1]
		for _, seen := range chain {
			if seen == name {
				expandErr = fmt.Errorf("%w: %s", appErr.ErrIncludeCycle, strings.Join(append(chain, name), " -> "))
				return match
			}
		}
		content, ok := lookup(name)
		if !ok {
			expandErr = fmt.Errorf("include %s: %w", name, appErr.ErrNotFound)
			return match
		}
		expanded, err := expandIncludes(string(content), lookup, append(chain, name))
		if err != nil {
			expandErr = err
			return match
		}
		return expanded
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// ListIncludes returns the placeholder names referenced by the body in
// document order, for lint and watcher dependency tracking.
func ListIncludes(body string) []string {
	matches := includeRegex.FindAllStringSubmatch(body, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
