package compiler

import (
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/rules"
)

// Token text layout. Every token in a token stream is written as its
// CodeWidth-digit rule code followed by Separator, so token i occupies
// characters [i*TokenWidth, (i+1)*TokenWidth).
const (
	CodeWidth  = 4
	Separator  = ';'
	TokenWidth = CodeWidth + 1

	// MaxRules is the number of distinct codes CodeWidth digits can hold.
	MaxRules = 9999
)

// RegexOptions are applied to every compiled pattern.
const RegexOptions = regexp2.IgnoreCase | regexp2.IgnorePatternWhitespace

// FixUp inspects a produced trait in the context of the full text. It may
// adjust the trait; returning false vetoes it.
type FixUp func(t *ir.Trait, text []rune) bool

// Alternative is one compiled rule. Each rule gets its own regular
// expression so that the longest match at a given start can be chosen
// across rules; a single alternation would stop at the first rule that
// matches.
type Alternative struct {
	Rule *rules.Rule

	// Code is the rule's token code.
	Code string

	// Pattern is the final regular expression text.
	Pattern string

	// Groups lists the compiled names of the named groups in Pattern,
	// in group-number order.
	Groups []string

	re *regexp2.Regexp
}

// Regexp returns the compiled expression. It is safe for concurrent use.
func (a *Alternative) Regexp() *regexp2.Regexp {
	return a.re
}

// Grammar is a compiled, read-only rule set. A Grammar may be shared by any
// number of goroutines.
type Grammar struct {
	// Name labels traits whose action did not name them.
	Name string

	// Scanner holds fragment and keyword alternatives, matched over text.
	Scanner []*Alternative

	// Replacers and Producers are matched over token text.
	Replacers []*Alternative
	Producers []*Alternative

	// FixUps run in order on every produced trait.
	FixUps []FixUp

	codes  map[string]string
	rules  []*rules.Rule
	groups int
}

// Code returns the token code assigned to a rule.
func (g *Grammar) Code(rule string) (string, bool) {
	code, ok := g.codes[rule]
	return code, ok
}

// Rules returns the compiled rules in code order.
func (g *Grammar) Rules() []*rules.Rule {
	return slices.Clone(g.rules)
}

// Alternatives returns every alternative in code order.
func (g *Grammar) Alternatives() []*Alternative {
	all := make([]*Alternative, 0, len(g.Scanner)+len(g.Replacers)+len(g.Producers))
	all = append(all, g.Scanner...)
	all = append(all, g.Replacers...)
	all = append(all, g.Producers...)
	return all
}

// GroupCount returns the number of named groups across all alternatives.
func (g *Grammar) GroupCount() int {
	return g.groups
}
