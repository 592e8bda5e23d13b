package engine

import (
	"cmp"
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/pattern"
)

// match is one candidate match of an alternative.
type match struct {
	alt        *compiler.Alternative
	m          *regexp2.Match
	start, end int
}

// findAll collects every non-empty match of every alternative over input.
// With width > 1 the input is token text, and only matches that begin and
// end on a token boundary are kept.
func findAll(alts []*compiler.Alternative, input []rune, width int, report func(error)) []match {
	var out []match
	for _, alt := range alts {
		m, err := alt.Regexp().FindRunesMatch(input)
		for m != nil && err == nil {
			if m.Length > 0 && m.Index%width == 0 && m.Length%width == 0 {
				out = append(out, match{alt: alt, m: m, start: m.Index, end: m.Index + m.Length})
			}
			m, err = alt.Regexp().FindNextMatch(m)
		}
		if err != nil {
			report(&RuntimeError{
				Code:    ErrCodeMatchFailed,
				Rule:    alt.Rule.Name,
				Message: err.Error(),
			})
		}
	}
	return out
}

// selectMatches orders candidates by start, then priority, then longest
// first, then declaration order, and keeps each candidate that begins at or
// after the end of the last one kept.
func selectMatches(ms []match) []match {
	slices.SortStableFunc(ms, compareMatches)

	out := ms[:0]
	end := 0
	for _, m := range ms {
		if m.start < end {
			continue
		}
		out = append(out, m)
		end = m.end
	}
	return out
}

func compareMatches(a, b match) int {
	if c := cmp.Compare(a.start, b.start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.alt.Rule.Priority, b.alt.Rule.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.end-b.start, a.end-a.start); c != 0 {
		return c
	}
	return cmp.Compare(a.alt.Rule.Index, b.alt.Rule.Index)
}

// addCaptures adds every non-empty capture of the match's named groups
// under the group's logical name. text maps a capture's index and length
// to the text it stands for.
func addCaptures(groups ir.Groups, m match, text func(index, length int) string) {
	for _, name := range m.alt.Groups {
		g := m.m.GroupByName(name)
		if g == nil {
			continue
		}
		logical := pattern.LogicalName(name)
		for _, c := range g.Captures {
			if c.Length == 0 {
				continue
			}
			groups.Add(logical, text(c.Index, c.Length))
		}
	}
}
