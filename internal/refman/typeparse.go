package refman

import (
	"sort"
	"strings"
)

// TypeNode is one union member of a parsed type string. Container types
// ("list[str]") carry the member types they hold.
type TypeNode struct {
	Name      string
	Container bool
	Holds     []TypeNode
}

// ParseTypeString parses the "name | name[inner | inner2]" grammar.
// Whitespace is ignored.
func ParseTypeString(t string) []TypeNode {
	_, parsed := parseType(t)
	return parsed
}

func parseType(t string) (int, []TypeNode) {
	var parsed []TypeNode
	var name strings.Builder
	i := 0
	for i < len(t) {
		c := t[i]
		switch c {
		case '[':
			n, sub := parseType(t[i+1:])
			parsed = append(parsed, TypeNode{Name: name.String(), Container: true, Holds: sub})
			name.Reset()
			i += n + 1
			continue
		case ']':
			if name.Len() > 0 {
				parsed = append(parsed, TypeNode{Name: name.String()})
			}
			return i + 1, parsed
		case ' ', '\t', '\n', '\r':
		case '|':
			if name.Len() > 0 {
				parsed = append(parsed, TypeNode{Name: name.String()})
			}
			name.Reset()
		default:
			name.WriteByte(c)
		}
		i++
	}
	if name.Len() > 0 {
		parsed = append(parsed, TypeNode{Name: name.String()})
	}
	return i, parsed
}

// AssembleType renders nodes back to the canonical form: members sorted
// by name and joined with "|", containers as "name[inner]".
func AssembleType(nodes []TypeNode) string {
	sorted := make([]TypeNode, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	parts := make([]string, 0, len(sorted))
	for _, n := range sorted {
		if n.Container {
			parts = append(parts, n.Name+"["+AssembleType(n.Holds)+"]")
		} else {
			parts = append(parts, n.Name)
		}
	}
	return strings.Join(parts, "|")
}

// CanonicalType is the parse-then-assemble shortcut used by the types
// generator.
func CanonicalType(raw string) string {
	return AssembleType(ParseTypeString(raw))
}
