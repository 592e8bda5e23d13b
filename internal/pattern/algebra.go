package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Suffix separates a logical group name from its uniqueness counter in a
// compiled group name: "units__12" has logical name "units".
// Rule names may not contain it.
const Suffix = "__"

// Namer hands out compiled group names. One Namer is used per compilation,
// so compiling the same declarations twice produces identical patterns.
type Namer struct {
	n int
}

// NewNamer returns a Namer starting at 1.
func NewNamer() *Namer {
	return &Namer{}
}

// Next returns a fresh compiled name for logical.
func (n *Namer) Next(logical string) string {
	n.n++
	return logical + Suffix + strconv.Itoa(n.n)
}

// Count returns how many names have been handed out.
func (n *Namer) Count() int {
	return n.n
}

// LogicalName strips the uniqueness suffix from a compiled group name.
// Names without a numeric suffix are returned unchanged.
func LogicalName(compiled string) string {
	i := strings.LastIndex(compiled, Suffix)
	if i < 0 {
		return compiled
	}
	if _, err := strconv.Atoi(compiled[i+len(Suffix):]); err != nil {
		return compiled
	}
	return compiled[:i]
}

// Rename records one group renaming. Pos is the byte offset of the
// declaration in the renamed pattern.
type Rename struct {
	Old string
	New string
	Pos int
}

// Normalize rewrites Python-style named groups (?P<name>...) and
// back-references (?P=name) into the (?<name>...) and \k<name> forms the
// engine compiles. Patterns already in that form are returned unchanged.
func Normalize(p string) string {
	return rebuild(p, lex(p, false), func(it item) (string, bool) {
		switch it.kind {
		case itemGroup:
			return "(?<" + it.name + ">", true
		case itemBackref:
			return `\k<` + it.name + ">", true
		}
		return "", false
	})
}

// RenameGroups gives every named capture declaration in p a fresh name from
// namer. When keepFirst is set the first declaration, the rule's own
// wrapping group, keeps its name. Back-references are left untouched; pass
// the returned renames to RelinkBackrefs.
//
// The output is normalized. Renaming an already renamed pattern renames
// again from the logical names, so the result never accumulates suffixes.
func RenameGroups(p string, namer *Namer, keepFirst bool) (string, []Rename) {
	p = Normalize(p)
	items := lex(p, false)

	var b strings.Builder
	var renames []Rename
	last := 0
	first := true
	for _, it := range items {
		if it.kind != itemGroup {
			continue
		}
		name := it.name
		if !(first && keepFirst) {
			name = namer.Next(LogicalName(it.name))
		}
		first = false

		b.WriteString(p[last:it.start])
		renames = append(renames, Rename{Old: it.name, New: name, Pos: b.Len()})
		b.WriteString("(?<" + name + ">")
		last = it.end
	}
	b.WriteString(p[last:])
	return b.String(), renames
}

// RelinkBackrefs rewrites every back-reference in p to the compiled name of
// the group it is lexically tied to: the nearest declaration of that name
// before the reference, or failing that the first one after it.
//
// p and renames must come from the same RenameGroups call. A reference to a
// name no declaration carries is an error.
func RelinkBackrefs(p string, renames []Rename) (string, error) {
	items := lex(p, false)

	declared := make(map[string]bool)
	for _, it := range items {
		if it.kind == itemGroup {
			declared[it.name] = true
		}
	}

	var errs []error
	out := rebuild(p, items, func(it item) (string, bool) {
		if it.kind != itemBackref {
			return "", false
		}
		if target, ok := resolveBackref(it, renames); ok {
			return `\k<` + target + ">", true
		}
		if !declared[it.name] {
			errs = append(errs, fmt.Errorf("back-reference to undefined group %q", it.name))
		}
		return "", false
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

func resolveBackref(ref item, renames []Rename) (string, bool) {
	target, found := "", false
	for _, r := range renames {
		if r.Old != ref.name {
			continue
		}
		if r.Pos < ref.start {
			target, found = r.New, true
			continue
		}
		if !found {
			return r.New, true
		}
		break
	}
	return target, found
}

// Compile renames groups and relinks back-references in one step.
func Compile(p string, namer *Namer, keepFirst bool) (string, error) {
	renamed, renames := RenameGroups(p, namer, keepFirst)
	return RelinkBackrefs(renamed, renames)
}

// References returns the distinct bare words of a token-level pattern in
// order of first appearance. Group names, back-reference names, escapes,
// character classes and comments are not words.
func References(p string) []string {
	return distinct(lex(p, true), itemWord)
}

// FragmentReferences returns the distinct {name} references of a fragment
// pattern in order of first appearance.
func FragmentReferences(p string) []string {
	return distinct(lex(p, false), itemFragmentRef)
}

// SubstituteReferences replaces every bare word of a token-level pattern
// with resolve(word). Every resolution error is reported.
func SubstituteReferences(p string, resolve func(word string) (string, error)) (string, error) {
	return substitute(p, lex(p, true), itemWord, resolve)
}

// ExpandFragments replaces every {name} reference of a fragment pattern
// with resolve(name). Every resolution error is reported.
func ExpandFragments(p string, resolve func(name string) (string, error)) (string, error) {
	return substitute(p, lex(p, false), itemFragmentRef, resolve)
}

// GroupNames returns the names of every named capture declared in p, in
// order, including duplicates.
func GroupNames(p string) []string {
	var names []string
	for _, it := range lex(p, false) {
		if it.kind == itemGroup {
			names = append(names, it.name)
		}
	}
	return names
}

func substitute(p string, items []item, kind itemKind, resolve func(string) (string, error)) (string, error) {
	var errs []error
	out := rebuild(p, items, func(it item) (string, bool) {
		if it.kind != kind {
			return "", false
		}
		s, err := resolve(it.name)
		if err != nil {
			errs = append(errs, err)
			return "", false
		}
		return s, true
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// rebuild copies p, replacing each item for which replace returns true.
func rebuild(p string, items []item, replace func(item) (string, bool)) string {
	var b strings.Builder
	last := 0
	for _, it := range items {
		s, ok := replace(it)
		if !ok {
			continue
		}
		b.WriteString(p[last:it.start])
		b.WriteString(s)
		last = it.end
	}
	b.WriteString(p[last:])
	return b.String()
}

func distinct(items []item, kind itemKind) []string {
	seen := make(map[string]bool)
	var names []string
	for _, it := range items {
		if it.kind != kind || seen[it.name] {
			continue
		}
		seen[it.name] = true
		names = append(names, it.name)
	}
	return names
}
