package pattern

import "strings"

// itemKind classifies the pieces of regex syntax the algebra rewrites.
type itemKind int

const (
	// itemGroup is a named capture declaration: (?<name>, (?P<name> or (?'name'.
	itemGroup itemKind = iota

	// itemBackref is a named back-reference: \k<name>, \k'name' or (?P=name).
	// The span of (?P=name) includes the closing paren.
	itemBackref

	// itemFragmentRef is an inline fragment reference: {name}.
	itemFragmentRef

	// itemWord is a bare word. Only produced in word mode.
	itemWord
)

// item is one recognised piece of syntax with its byte span in the pattern.
type item struct {
	kind  itemKind
	name  string
	start int
	end   int
}

// lex walks a pattern written for IgnorePatternWhitespace mode and returns
// the named groups, back-references, fragment references and (when words is
// set) bare words it contains, in order of appearance.
//
// Escapes, character classes and # comments never yield items. Inline
// option groups such as (?i) and (?x-s:...) are skipped so their letters are
// not mistaken for words.
func lex(p string, words bool) []item {
	var items []item
	inClass := false
	escEnd := -1

	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c == '\\':
			if !inClass {
				if it, ok := lexBackref(p, i); ok {
					items = append(items, it)
					i = it.end
					continue
				}
			}
			i = skipEscape(p, i)
			escEnd = i

		case inClass:
			if c == ']' {
				inClass = false
			}
			i++

		case c == '[':
			inClass = true
			i++
			if i < len(p) && p[i] == '^' {
				i++
			}
			if i < len(p) && p[i] == ']' {
				i++ // leading ] is literal
			}

		case c == '#':
			for i < len(p) && p[i] != '\n' {
				i++
			}

		case c == '(':
			if it, ok := lexGroup(p, i); ok {
				items = append(items, it)
				i = it.end
				continue
			}
			if end, ok := skipOptions(p, i); ok {
				i = end
				continue
			}
			i++

		case c == '{':
			if name, end, ok := readName(p, i+1); ok && end < len(p) && p[end] == '}' {
				items = append(items, item{kind: itemFragmentRef, name: name, start: i, end: end + 1})
				i = end + 1
				continue
			}
			i++

		case words && isNameStart(c):
			name, end, _ := readName(p, i)
			if i > 0 && i != escEnd && isNameChar(p[i-1]) {
				// Tail of something like "\d2x" that started mid-token.
				i = end
				continue
			}
			items = append(items, item{kind: itemWord, name: name, start: i, end: end})
			i = end

		default:
			i++
		}
	}
	return items
}

// skipEscape returns the index just past the escape starting at i.
// Property escapes like \p{L} are consumed whole so the braces are not read
// as a fragment reference.
func skipEscape(p string, i int) int {
	if i+2 < len(p) && (p[i+1] == 'p' || p[i+1] == 'P') && p[i+2] == '{' {
		for j := i + 3; j < len(p); j++ {
			if p[j] == '}' {
				return j + 1
			}
		}
		return len(p)
	}
	return i + 2
}

// lexBackref recognises \k<name> and \k'name' at i.
func lexBackref(p string, i int) (item, bool) {
	if i+2 >= len(p) || p[i+1] != 'k' {
		return item{}, false
	}
	var closer byte
	switch p[i+2] {
	case '<':
		closer = '>'
	case '\'':
		closer = '\''
	default:
		return item{}, false
	}
	name, end, ok := readName(p, i+3)
	if !ok || end >= len(p) || p[end] != closer {
		return item{}, false
	}
	return item{kind: itemBackref, name: name, start: i, end: end + 1}, true
}

// lexGroup recognises named group declarations and the (?P=name) form at i.
// Lookbehind openers (?<= and (?<! fail readName and are not items.
func lexGroup(p string, i int) (item, bool) {
	rest := p[i:]
	switch {
	case strings.HasPrefix(rest, "(?P="):
		name, end, ok := readName(p, i+4)
		if ok && end < len(p) && p[end] == ')' {
			return item{kind: itemBackref, name: name, start: i, end: end + 1}, true
		}
	case strings.HasPrefix(rest, "(?P<"):
		name, end, ok := readName(p, i+4)
		if ok && end < len(p) && p[end] == '>' {
			return item{kind: itemGroup, name: name, start: i, end: end + 1}, true
		}
	case strings.HasPrefix(rest, "(?<"):
		name, end, ok := readName(p, i+3)
		if ok && end < len(p) && p[end] == '>' {
			return item{kind: itemGroup, name: name, start: i, end: end + 1}, true
		}
	case strings.HasPrefix(rest, "(?'"):
		name, end, ok := readName(p, i+3)
		if ok && end < len(p) && p[end] == '\'' {
			return item{kind: itemGroup, name: name, start: i, end: end + 1}, true
		}
	}
	return item{}, false
}

// skipOptions recognises inline option groups (?imnsx-imnsx) and the
// opening (?imnsx-imnsx: of a scoped option group.
func skipOptions(p string, i int) (int, bool) {
	if i+2 >= len(p) || p[i+1] != '?' {
		return 0, false
	}
	j := i + 2
	for j < len(p) && isOptionChar(p[j]) {
		j++
	}
	if j == i+2 || j >= len(p) {
		return 0, false
	}
	if p[j] == ')' || p[j] == ':' {
		return j + 1, true
	}
	return 0, false
}

func isOptionChar(c byte) bool {
	switch c {
	case 'i', 'm', 'n', 's', 'x', '-':
		return true
	}
	return false
}

// readName reads [A-Za-z_][A-Za-z0-9_]* starting at i.
func readName(p string, i int) (string, int, bool) {
	if i >= len(p) || !isNameStart(p[i]) {
		return "", i, false
	}
	j := i + 1
	for j < len(p) && isNameChar(p[j]) {
		j++
	}
	return p[i:j], j, true
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
