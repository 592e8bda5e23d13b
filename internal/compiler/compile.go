package compiler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/roach88/traiter/internal/pattern"
	"github.com/roach88/traiter/internal/rules"
)

// DefaultGroupBudget caps the named groups a grammar may declare in total.
const DefaultGroupBudget = 2000

// Option configures compilation.
type Option func(*options)

type options struct {
	name        string
	fixUps      []FixUp
	groupBudget int
	timeout     time.Duration
}

// WithName sets the grammar name used to label traits.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithFixUps appends fix-ups run on every produced trait.
func WithFixUps(fixUps ...FixUp) Option {
	return func(o *options) {
		o.fixUps = append(o.fixUps, fixUps...)
	}
}

// WithGroupBudget sets the maximum number of named groups.
func WithGroupBudget(n int) Option {
	return func(o *options) {
		o.groupBudget = n
	}
}

// WithMatchTimeout bounds the time any single regex match may take.
// Zero leaves matches unbounded.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Compile builds a Grammar from the closure of roots. With no roots every
// producer in the registry is a root.
//
// Compilation is deterministic: the same declarations always yield the same
// codes, group names and patterns. Every configuration error found is
// returned, joined.
func Compile(reg *rules.Registry, roots []string, opts ...Option) (*Grammar, error) {
	o := options{groupBudget: DefaultGroupBudget}
	for _, opt := range opts {
		opt(&o)
	}

	if len(roots) == 0 {
		roots = reg.Producers()
	}
	if len(roots) == 0 {
		return nil, errors.Join(reg.Err(), rules.NewConfigError(rules.ErrNoRules, "", "grammar has no producers"))
	}

	closure, err := reg.Closure(roots...)
	if err != nil {
		return nil, err
	}
	if len(closure) > MaxRules {
		return nil, rules.NewConfigError(rules.ErrTooManyRules, "", "%d rules exceed the %d available token codes", len(closure), MaxRules)
	}

	c := &compilation{
		reg:      reg,
		namer:    pattern.NewNamer(),
		codes:    make(map[string]string, len(closure)),
		expanded: make(map[string]string),
	}
	g := &Grammar{
		Name:   o.name,
		FixUps: o.fixUps,
		codes:  c.codes,
		rules:  closure,
	}

	var errs []error
	for i, rule := range closure {
		code := fmt.Sprintf("%0*d", CodeWidth, i+1)
		if strings.ContainsRune(code, Separator) {
			errs = append(errs, rules.NewConfigError(rules.ErrTooManyRules, rule.Name, "code %q contains the token separator", code))
		}
		c.codes[rule.Name] = code
	}

	for _, rule := range closure {
		alt, err := c.alternative(rule, o.timeout)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.groups += len(alt.Groups)

		switch rule.Kind {
		case rules.Fragment, rules.Keyword:
			g.Scanner = append(g.Scanner, alt)
		case rules.Replacer:
			g.Replacers = append(g.Replacers, alt)
		case rules.Producer:
			g.Producers = append(g.Producers, alt)
		}
	}

	if g.groups > o.groupBudget {
		errs = append(errs, rules.NewConfigError(rules.ErrGroupBudget, "",
			"grammar declares %d named groups, budget is %d", g.groups, o.groupBudget))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// compilation carries the state of one Compile call.
type compilation struct {
	reg   *rules.Registry
	namer *pattern.Namer
	codes map[string]string

	// expanded memoizes the inlined text of each fragment before renaming.
	expanded map[string]string
}

func (c *compilation) alternative(rule *rules.Rule, timeout time.Duration) (*Alternative, error) {
	var body string
	var err error
	if rule.Kind.TextLevel() {
		body, err = c.expand(rule)
	} else {
		body, err = pattern.SubstituteReferences(pattern.Normalize(rule.Pattern), c.tokenMatcher)
	}
	if err != nil {
		return nil, rules.NewConfigError(rules.ErrUndeclaredRef, rule.Name, "%v", err)
	}

	text, err := pattern.Compile(wrap(rule, body), c.namer, rule.Capture)
	if err != nil {
		return nil, rules.NewConfigError(rules.ErrBadBackref, rule.Name, "%v", err)
	}

	re, err := regexp2.Compile(text, RegexOptions)
	if err != nil {
		return nil, rules.NewConfigError(rules.ErrMalformedPattern, rule.Name, "%v", err)
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}

	return &Alternative{
		Rule:    rule,
		Code:    c.codes[rule.Name],
		Pattern: text,
		Groups:  namedGroups(re),
		re:      re,
	}, nil
}

// expand returns a text level rule's pattern with every {name} inlined.
// Reference validity and acyclicity were checked by Closure.
func (c *compilation) expand(rule *rules.Rule) (string, error) {
	if s, ok := c.expanded[rule.Name]; ok {
		return s, nil
	}
	s, err := pattern.ExpandFragments(pattern.Normalize(rule.Pattern), func(name string) (string, error) {
		ref, ok := c.reg.Lookup(name)
		if !ok {
			return "", fmt.Errorf("reference to undeclared rule %q", name)
		}
		inner, err := c.expand(ref)
		if err != nil {
			return "", err
		}
		return wrap(ref, inner), nil
	})
	if err != nil {
		return "", err
	}
	c.expanded[rule.Name] = s
	return s, nil
}

// tokenMatcher resolves a bare word in a token level pattern to a match of
// exactly one token produced by that rule.
func (c *compilation) tokenMatcher(word string) (string, error) {
	code, ok := c.codes[word]
	if !ok {
		return "", fmt.Errorf("reference to undeclared rule %q", word)
	}
	return "(?:" + code + string(Separator) + ")", nil
}

// wrap applies a rule's own group and, for keywords, word boundaries.
func wrap(rule *rules.Rule, body string) string {
	end := " )"
	if strings.Contains(body, "#") {
		end = "\n)" // a trailing comment would swallow the paren
	}
	var s string
	if rule.Capture {
		s = "(?<" + rule.Name + "> " + body + end
	} else {
		s = "(?: " + body + end
	}
	if rule.Kind == rules.Keyword {
		s = `\b ` + s + ` \b`
	}
	return s
}

// namedGroups lists the named groups of re in group-number order.
// regexp2 reports unnamed groups by their number, which never starts with
// a letter or underscore.
func namedGroups(re *regexp2.Regexp) []string {
	var names []string
	for _, name := range re.GetGroupNames() {
		if name == "" {
			continue
		}
		if c := name[0]; c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			names = append(names, name)
		}
	}
	return names
}
