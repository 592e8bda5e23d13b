package rules

import (
	"strings"

	"github.com/roach88/traiter/internal/ir"
)

// Kind selects which phase of the pipeline a rule takes part in.
type Kind int

const (
	// Fragment is a raw sub-pattern matched against the text during the scan.
	Fragment Kind = iota

	// Keyword is a Fragment wrapped in word boundaries.
	Keyword

	// Replacer matches a run of tokens and merges it into one token.
	Replacer

	// Producer matches a run of tokens and hands the merged token to its
	// Action to build traits. Producers are terminal.
	Producer
)

// String returns the lower-case kind name used in grammar files and errors.
func (k Kind) String() string {
	switch k {
	case Fragment:
		return "fragment"
	case Keyword:
		return "keyword"
	case Replacer:
		return "replacer"
	case Producer:
		return "producer"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "fragment":
		return Fragment, true
	case "keyword":
		return Keyword, true
	case "replacer":
		return Replacer, true
	case "producer":
		return Producer, true
	}
	return 0, false
}

// TextLevel reports whether the rule matches raw text (Fragment, Keyword)
// rather than token streams (Replacer, Producer).
func (k Kind) TextLevel() bool {
	return k == Fragment || k == Keyword
}

// Priorities order candidate matches that start at the same offset.
// Lower sorts first.
const (
	PriorityFirst  = -9999
	PriorityNormal = 0
	PriorityLast   = 9999
)

// Action converts the token a producer matched into traits.
// Returning no traits rejects the match; this is not an error.
type Action func(tok *ir.Token) []ir.Trait

// Rule is one named declaration.
//
// Pattern is a regular expression in IgnorePatternWhitespace form. For text
// level rules, {name} inlines another fragment. For token level rules, bare
// words name the rules whose tokens are matched.
type Rule struct {
	Name     string
	Kind     Kind
	Pattern  string
	Action   Action
	Capture  bool
	Priority int

	// Index is the declaration order within the registry.
	Index int
}

// Option adjusts a declaration.
type Option func(*Rule)

// WithCapture sets whether the rule wraps its pattern in a group carrying
// its own name.
func WithCapture(capture bool) Option {
	return func(r *Rule) {
		r.Capture = capture
	}
}

// NoCapture is shorthand for WithCapture(false).
func NoCapture() Option {
	return WithCapture(false)
}

// WithPriority sets the tie-break priority.
func WithPriority(p int) Option {
	return func(r *Rule) {
		r.Priority = p
	}
}

// First makes the rule win ties against normal rules.
func First() Option {
	return WithPriority(PriorityFirst)
}

// Last makes the rule lose ties. Use it for catch-all word rules.
func Last() Option {
	return WithPriority(PriorityLast)
}

// Alt joins alternatives into one pattern.
func Alt(alts ...string) string {
	return strings.Join(alts, " | ")
}

// Words joins the whitespace separated words of s as alternatives.
func Words(s string) string {
	return Alt(strings.Fields(s)...)
}
