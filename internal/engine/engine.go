package engine

import (
	"log/slog"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
)

// DefaultMaxPasses is the default ceiling on replace passes per parse.
// Acyclic grammars reach a fixed point long before it.
const DefaultMaxPasses = 100

// Parser runs a compiled grammar over text.
//
// A Parser holds no per-parse state, so one Parser may be used by many
// goroutines at once. Each Parse call is synchronous and deterministic: the
// same grammar and text always produce the same traits.
type Parser struct {
	grammar   *compiler.Grammar
	maxPasses int
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxPasses sets the replace pass ceiling.
//
// Default: 100 passes (DefaultMaxPasses).
// Use WithMaxPasses(1) in tests that exercise the ceiling.
func WithMaxPasses(n int) Option {
	return func(p *Parser) {
		p.maxPasses = n
	}
}

// WithLogger sets the logger used for runtime warnings.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// New creates a Parser for g.
func New(g *compiler.Grammar, opts ...Option) *Parser {
	p := &Parser{
		grammar:   g,
		maxPasses: DefaultMaxPasses,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grammar returns the grammar the parser runs.
func (p *Parser) Grammar() *compiler.Grammar {
	return p.grammar
}

// Parse extracts every trait the grammar finds in text, ordered by start
// offset.
//
// Parse never fails. Hitting the pass ceiling stops replacing and produces
// from the tokens reached so far; regex match failures drop that rule's
// matches. Both are logged. Use Trace to observe them as errors.
func (p *Parser) Parse(text string) []ir.Trait {
	run := p.run(text, false)
	if run.err != nil {
		p.logger.Warn("parse degraded",
			"grammar", p.grammar.Name,
			"error", run.err)
	}
	return run.traits
}

// Trace parses text and records the token stream after every phase.
// The returned error reports a hit pass ceiling or failed regex matches;
// the trace is complete either way.
func (p *Parser) Trace(text string) (*Trace, error) {
	run := p.run(text, true)
	return run.trace, run.err
}
