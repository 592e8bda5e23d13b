package rules

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/traiter/internal/pattern"
)

// namePattern is the shape every rule name must have. Names are bare words
// inside token level patterns, so they must not look like regex syntax.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry holds rule declarations in the order they were made.
//
// Declarations are append-only. Mistakes are collected rather than raised
// so a grammar author sees every problem at once when the registry is
// compiled. A Registry is not safe for concurrent mutation; build it once,
// then compile.
type Registry struct {
	rules  []*Rule
	byName map[string]*Rule
	errs   []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Rule)}
}

// Clone returns an independent copy. Use it to extend a shared catalog
// without changing it.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		rules:  make([]*Rule, 0, len(r.rules)),
		byName: make(map[string]*Rule, len(r.byName)),
		errs:   slices.Clone(r.errs),
	}
	for _, rule := range r.rules {
		cp := *rule
		c.rules = append(c.rules, &cp)
		c.byName[cp.Name] = &cp
	}
	return c
}

// Fragment declares a raw text pattern. Captures by default.
func (r *Registry) Fragment(name, pattern string, opts ...Option) {
	r.declare(name, Fragment, pattern, nil, opts)
}

// Keyword declares a text pattern bounded by \b on both sides.
// Captures by default.
func (r *Registry) Keyword(name, pattern string, opts ...Option) {
	r.declare(name, Keyword, pattern, nil, opts)
}

// Replacer declares a token level pattern whose match is merged into one
// token named after the rule. Captures by default.
func (r *Registry) Replacer(name, pattern string, opts ...Option) {
	r.declare(name, Replacer, pattern, nil, opts)
}

// Producer declares a terminal token level pattern. Does not capture by
// default.
func (r *Registry) Producer(name, pattern string, action Action, opts ...Option) {
	r.declare(name, Producer, pattern, action, opts)
}

func (r *Registry) declare(name string, kind Kind, pattern string, action Action, opts []Option) {
	rule := Rule{
		Name:    name,
		Kind:    kind,
		Pattern: pattern,
		Action:  action,
		Capture: kind != Producer,
	}
	for _, opt := range opts {
		opt(&rule)
	}
	r.Declare(rule)
}

// Declare appends a fully specified rule. Invalid declarations are recorded
// as errors; a duplicate never replaces the first declaration.
func (r *Registry) Declare(rule Rule) {
	switch {
	case !namePattern.MatchString(rule.Name):
		r.fail(ErrInvalidName, rule.Name, "rule name must match [a-z][a-z0-9_]*")
		return
	case strings.Contains(rule.Name, pattern.Suffix):
		r.fail(ErrInvalidName, rule.Name, "rule name must not contain %q", pattern.Suffix)
		return
	case r.byName[rule.Name] != nil:
		r.fail(ErrDuplicateRule, rule.Name, "declared more than once")
		return
	case strings.TrimSpace(rule.Pattern) == "":
		r.fail(ErrEmptyPattern, rule.Name, "pattern is empty")
		return
	case rule.Kind == Producer && rule.Action == nil:
		r.fail(ErrMissingAction, rule.Name, "producer has no action")
		return
	case rule.Kind != Producer && rule.Action != nil:
		r.fail(ErrUnexpectedAction, rule.Name, "only producers take an action")
		return
	}

	rule.Index = len(r.rules)
	r.rules = append(r.rules, &rule)
	r.byName[rule.Name] = &rule
}

func (r *Registry) fail(code, rule, format string, args ...any) {
	r.errs = append(r.errs, NewConfigError(code, rule, format, args...))
}

// Err returns every declaration error, joined, or nil.
func (r *Registry) Err() error {
	return errors.Join(r.errs...)
}

// Lookup returns the rule declared under name.
func (r *Registry) Lookup(name string) (*Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// Rules returns every declared rule in declaration order.
func (r *Registry) Rules() []*Rule {
	return slices.Clone(r.rules)
}

// Len returns the number of declared rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Producers returns the names of every producer in declaration order.
func (r *Registry) Producers() []string {
	var names []string
	for _, rule := range r.rules {
		if rule.Kind == Producer {
			names = append(names, rule.Name)
		}
	}
	return names
}

// References returns the names a rule's pattern refers to: {name} inlines
// for text level rules and bare words for token level rules.
func (rule *Rule) References() []string {
	if rule.Kind.TextLevel() {
		return pattern.FragmentReferences(rule.Pattern)
	}
	return pattern.References(rule.Pattern)
}

// Closure returns the named rules plus everything they need, grouped by kind
// (text level first, then replacers, then producers) and in declaration order
// within a kind.
//
// Fragments reached only through {name} inlining are checked but not
// returned; they are matched as part of the fragment that inlines them.
// Undeclared names, references to producers, token level rules inlined into
// text patterns, {name} inlines in token level patterns, and reference
// cycles are all errors, reported together
// with any declaration errors.
func (r *Registry) Closure(names ...string) ([]*Rule, error) {
	errs := slices.Clone(r.errs)
	graph := make(dependencyGraph)
	var order []string
	included := make(map[string]bool)
	var out []*Rule

	var visit func(name string, inline bool)
	visit = func(name string, inline bool) {
		rule := r.byName[name]
		if !inline && !included[name] {
			included[name] = true
			out = append(out, rule)
		}
		if _, done := graph[name]; done {
			return
		}
		graph[name] = []string{}
		order = append(order, name)

		if !rule.Kind.TextLevel() {
			for _, ref := range pattern.FragmentReferences(rule.Pattern) {
				errs = append(errs, NewConfigError(ErrInlineInTokenRE, name, "{%s} cannot be inlined into a %s pattern; use the bare name", ref, rule.Kind))
			}
		}

		for _, ref := range rule.References() {
			target, ok := r.byName[ref]
			switch {
			case !ok:
				errs = append(errs, NewConfigError(ErrUndeclaredRef, name, "reference to undeclared rule %q", ref))
				continue
			case rule.Kind.TextLevel() && !target.Kind.TextLevel():
				errs = append(errs, NewConfigError(ErrTokenRefInText, name, "{%s} must name a fragment or keyword, not a %s", ref, target.Kind))
				continue
			case !rule.Kind.TextLevel() && target.Kind == Producer:
				errs = append(errs, NewConfigError(ErrProducerRef, name, "producer %q cannot be referenced", ref))
				continue
			}
			graph[name] = append(graph[name], ref)
			visit(ref, inline || rule.Kind.TextLevel())
		}
	}

	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			errs = append(errs, NewConfigError(ErrUndeclaredRef, "", "unknown rule %q", name))
			continue
		}
		visit(name, false)
	}

	for _, cycle := range findCycles(graph, order) {
		errs = append(errs, NewConfigError(ErrReferenceCycle, cycle[0], "reference cycle: %s", strings.Join(cycle, " -> ")))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slices.SortStableFunc(out, func(a, b *Rule) int {
		if ga, gb := kindGroup(a.Kind), kindGroup(b.Kind); ga != gb {
			return ga - gb
		}
		return a.Index - b.Index
	})
	return out, nil
}

func kindGroup(k Kind) int {
	switch k {
	case Replacer:
		return 1
	case Producer:
		return 2
	default:
		return 0
	}
}
