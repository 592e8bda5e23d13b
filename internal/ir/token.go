package ir

import (
	"maps"
	"slices"
)

// Groups maps a logical capture-group name to every substring it captured,
// in the order the captures occurred. Values are always substrings of the
// original text, never of the internal token-code string.
type Groups map[string][]string

// Add appends values under name. Empty values are skipped.
func (g Groups) Add(name string, values ...string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		g[name] = append(g[name], v)
	}
}

// First returns the first value captured under name, or "".
func (g Groups) First(name string) string {
	if vs := g[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Last returns the last value captured under name, or "".
func (g Groups) Last(name string) string {
	if vs := g[name]; len(vs) > 0 {
		return vs[len(vs)-1]
	}
	return ""
}

// All returns every value captured under name.
func (g Groups) All(name string) []string {
	return g[name]
}

// Has reports whether name captured at least one value.
func (g Groups) Has(name string) bool {
	return len(g[name]) > 0
}

// Names returns the group names in sorted order.
func (g Groups) Names() []string {
	return slices.Sorted(maps.Keys(g))
}

// Clone returns a deep copy.
func (g Groups) Clone() Groups {
	c := make(Groups, len(g))
	for k, v := range g {
		c[k] = slices.Clone(v)
	}
	return c
}

// Token is one matched span produced by the scanner or by merging a run of
// tokens during the replace and produce phases.
//
// Rule names the rule that produced the token. Tokens are never mutated
// after they are built; merging always creates a new token.
type Token struct {
	Rule   string `json:"rule"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Groups Groups `json:"groups,omitempty"`
}

// Len returns the span length in characters.
func (t *Token) Len() int {
	return t.End - t.Start
}
