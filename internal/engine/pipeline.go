package engine

import (
	"errors"
	"strings"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
)

// Trace records every phase of one parse.
type Trace struct {
	Text string `json:"text"`

	// Scanned is the token stream after overlap removal.
	Scanned []*ir.Token `json:"scanned"`

	// Passes holds the token stream after each replace pass that changed it.
	Passes [][]*ir.Token `json:"passes"`

	// Produced holds the merged tokens handed to producer actions.
	Produced []*ir.Token `json:"produced"`

	Traits []ir.Trait `json:"traits"`

	// Rejected counts producer matches whose action returned nothing.
	// Vetoed counts traits dropped by fix-ups.
	Rejected int `json:"rejected"`
	Vetoed   int `json:"vetoed"`
}

// Final returns the token stream the producers ran over.
func (t *Trace) Final() []*ir.Token {
	if len(t.Passes) == 0 {
		return t.Scanned
	}
	return t.Passes[len(t.Passes)-1]
}

type result struct {
	traits []ir.Trait
	trace  *Trace
	err    error
}

// run executes scan, replace and produce. The trace is only built when
// asked for.
func (p *Parser) run(text string, trace bool) result {
	var tr *Trace
	if trace {
		tr = &Trace{Text: text, Traits: []ir.Trait{}}
	}
	var errs []error
	report := func(err error) {
		errs = append(errs, err)
	}

	runes := []rune(text)

	// Scan
	tokens := p.scan(runes, report)
	if tr != nil {
		tr.Scanned = tokens
	}
	if len(tokens) == 0 {
		return result{traits: []ir.Trait{}, trace: tr, err: errors.Join(errs...)}
	}

	// Replace, to a fixed point
	limiter := newPassLimiter(p.maxPasses)
	for len(p.grammar.Replacers) > 0 {
		matches := p.match(p.grammar.Replacers, tokens, report)
		if len(matches) == 0 {
			break
		}
		if err := limiter.Check(p.grammar.Name); err != nil {
			report(err)
			break
		}
		tokens = splice(tokens, matches, runes)
		if tr != nil {
			tr.Passes = append(tr.Passes, tokens)
		}
	}

	// Produce
	traits := []ir.Trait{}
	for _, m := range p.match(p.grammar.Producers, tokens, report) {
		tok := merge(m, tokens, runes)
		if tr != nil {
			tr.Produced = append(tr.Produced, tok)
		}

		produced := m.alt.Rule.Action(tok)
		if len(produced) == 0 {
			if tr != nil {
				tr.Rejected++
			}
			continue
		}
		for _, t := range produced {
			if t.Name == "" {
				t.Name = p.grammar.Name
			}
			if t.Start == 0 && t.End == 0 {
				t.Start, t.End = tok.Start, tok.End
			}
			if !p.fixUp(&t, runes) {
				if tr != nil {
					tr.Vetoed++
				}
				continue
			}
			traits = append(traits, t)
		}
	}
	ir.SortTraits(traits)

	if tr != nil {
		tr.Traits = traits
	}
	return result{traits: traits, trace: tr, err: errors.Join(errs...)}
}

func (p *Parser) fixUp(t *ir.Trait, text []rune) bool {
	for _, fix := range p.grammar.FixUps {
		if !fix(t, text) {
			return false
		}
	}
	return true
}

// scan matches the fragment and keyword alternatives over the text and
// turns the winning matches into tokens.
func (p *Parser) scan(runes []rune, report func(error)) []*ir.Token {
	matches := selectMatches(findAll(p.grammar.Scanner, runes, 1, report))
	tokens := make([]*ir.Token, len(matches))
	for i, m := range matches {
		groups := ir.Groups{}
		addCaptures(groups, m, func(index, length int) string {
			return string(runes[index : index+length])
		})
		tokens[i] = &ir.Token{
			Rule:   m.alt.Rule.Name,
			Start:  m.start,
			End:    m.end,
			Groups: groups,
		}
	}
	return tokens
}

// match runs token level alternatives over the token text of tokens and
// returns the winning aligned matches.
func (p *Parser) match(alts []*compiler.Alternative, tokens []*ir.Token, report func(error)) []match {
	if len(alts) == 0 || len(tokens) == 0 {
		return nil
	}
	return selectMatches(findAll(alts, p.tokenText(tokens), compiler.TokenWidth, report))
}

// tokenText encodes a token stream as fixed-width codes, one per token.
func (p *Parser) tokenText(tokens []*ir.Token) []rune {
	var b strings.Builder
	b.Grow(len(tokens) * compiler.TokenWidth)
	for _, t := range tokens {
		code, _ := p.grammar.Code(t.Rule)
		b.WriteString(code)
		b.WriteByte(compiler.Separator)
	}
	return []rune(b.String())
}

// splice replaces each matched run of tokens with its merged token.
func splice(tokens []*ir.Token, matches []match, runes []rune) []*ir.Token {
	out := make([]*ir.Token, 0, len(tokens))
	prev := 0
	for _, m := range matches {
		first := m.start / compiler.TokenWidth
		out = append(out, tokens[prev:first]...)
		out = append(out, merge(m, tokens, runes))
		prev = m.end / compiler.TokenWidth
	}
	return append(out, tokens[prev:]...)
}

// merge builds the token for a token level match. Its span runs from the
// first covered token's start to the last covered token's end. Its groups
// are the covered tokens' groups plus the match's own captures, each mapped
// back to the original text it covers.
func merge(m match, tokens []*ir.Token, runes []rune) *ir.Token {
	first := m.start / compiler.TokenWidth
	last := m.end/compiler.TokenWidth - 1

	groups := ir.Groups{}
	for _, t := range tokens[first : last+1] {
		for name, values := range t.Groups {
			groups.Add(name, values...)
		}
	}
	addCaptures(groups, m, func(index, length int) string {
		i1 := index / compiler.TokenWidth
		i2 := (index + length - 1) / compiler.TokenWidth
		return string(runes[tokens[i1].Start:tokens[i2].End])
	})

	return &ir.Token{
		Rule:   m.alt.Rule.Name,
		Start:  tokens[first].Start,
		End:    tokens[last].End,
		Groups: groups,
	}
}
