package compiler

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/traiter/internal/rules"
)

// schemaFile names grammarSchema in error positions.
const schemaFile = "traiter-schema.cue"

// grammarSchema constrains grammar files before they are read. Definitions
// are closed, so misspelled fields are reported with their position.
const grammarSchema = `
#Rule: {
	name:      =~"^[a-z][a-z0-9_]*$"
	kind:      "fragment" | "keyword" | "replacer" | "producer"
	pattern:   string | [...string]
	capture?:  bool
	priority?: "first" | "normal" | "last"
	action?:   string
}

#Grammar: {
	extends?: string
	roots?: [...string]
	fixups?: [...string]
	rules: [...#Rule]
}
`

// Catalog resolves the names a grammar file uses for Go code: producer
// actions, fix-ups, and base registries a grammar may extend.
type Catalog struct {
	Actions map[string]rules.Action
	FixUps  map[string]FixUp
	Bases   map[string]func() *rules.Registry
}

// ActionNames returns the registered action names, sorted.
func (c Catalog) ActionNames() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition is a grammar read from a file but not yet compiled.
type Definition struct {
	Name     string
	Registry *rules.Registry
	Roots    []string
	FixUps   []FixUp
	Pos      token.Pos
}

// Compile compiles the definition. The grammar is named after the
// definition unless opts say otherwise.
func (d *Definition) Compile(opts ...Option) (*Grammar, error) {
	base := []Option{WithName(d.Name), WithFixUps(d.FixUps...)}
	return Compile(d.Registry, d.Roots, append(base, opts...)...)
}

// ParseGrammars reads every field of the top-level "grammar" struct.
// Errors are collected per grammar so one bad grammar does not hide others.
//
//	grammar: body_mass: {
//		extends: "shared"
//		rules: [
//			{name: "mass_key", kind: "keyword", pattern: "weight | mass"},
//			{name: "mass", kind: "producer", pattern: "mass_key range", action: "simple_mass"},
//		]
//	}
func ParseGrammars(v cue.Value, cat Catalog) ([]*Definition, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err, v)}
	}
	grammars := v.LookupPath(cue.ParsePath("grammar"))
	if !grammars.Exists() {
		return nil, []error{&CompileError{Field: "grammar", Message: "no grammar struct found", Pos: v.Pos()}}
	}

	iter, err := grammars.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err, v)}
	}

	var defs []*Definition
	var errs []error
	for iter.Next() {
		def, err := ParseGrammar(iter.Value(), cat)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs
}

// ParseGrammar converts one grammar value into a Definition. The grammar's
// name is its struct label.
func ParseGrammar(v cue.Value, cat Catalog) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, v)
	}

	schema := v.Context().CompileString(grammarSchema, cue.Filename(schemaFile)).LookupPath(cue.ParsePath("#Grammar"))
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, v)
	}

	def := &Definition{Pos: v.Pos()}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		def.Name = sels[len(sels)-1].String()
	}

	def.Registry = rules.NewRegistry()
	if ext := v.LookupPath(cue.ParsePath("extends")); ext.Exists() {
		name, err := ext.String()
		if err != nil {
			return nil, formatCUEError(err, ext)
		}
		base, ok := cat.Bases[name]
		if !ok {
			return nil, &CompileError{Field: "extends", Message: fmt.Sprintf("unknown base grammar %q", name), Pos: ext.Pos()}
		}
		def.Registry = base().Clone()
	}

	roots, err := stringList(v.LookupPath(cue.ParsePath("roots")))
	if err != nil {
		return nil, err
	}
	def.Roots = roots

	fixNames, err := stringList(v.LookupPath(cue.ParsePath("fixups")))
	if err != nil {
		return nil, err
	}
	for _, name := range fixNames {
		fix, ok := cat.FixUps[name]
		if !ok {
			return nil, &CompileError{Field: "fixups", Message: fmt.Sprintf("unknown fix-up %q", name), Pos: v.Pos()}
		}
		def.FixUps = append(def.FixUps, fix)
	}

	list, err := v.LookupPath(cue.ParsePath("rules")).List()
	if err != nil {
		return nil, formatCUEError(err, v)
	}
	for list.Next() {
		rule, err := parseRule(list.Value(), cat)
		if err != nil {
			return nil, err
		}
		def.Registry.Declare(rule)
	}

	return def, nil
}

// parseRule converts one #Rule value. Its defaults match the Registry
// helpers: everything but producers captures.
func parseRule(v cue.Value, cat Catalog) (rules.Rule, error) {
	var rule rules.Rule

	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return rule, formatCUEError(err, v)
	}
	rule.Name = name

	kindStr, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return rule, formatCUEError(err, v)
	}
	kind, _ := rules.ParseKind(kindStr) // the schema allows only valid kinds
	rule.Kind = kind
	rule.Capture = kind != rules.Producer

	patVal := v.LookupPath(cue.ParsePath("pattern"))
	if s, err := patVal.String(); err == nil {
		rule.Pattern = s
	} else {
		alts, err := stringList(patVal)
		if err != nil {
			return rule, err
		}
		rule.Pattern = rules.Alt(alts...)
	}

	if c := v.LookupPath(cue.ParsePath("capture")); c.Exists() {
		capture, err := c.Bool()
		if err != nil {
			return rule, formatCUEError(err, v)
		}
		rule.Capture = capture
	}

	if p := v.LookupPath(cue.ParsePath("priority")); p.Exists() {
		s, err := p.String()
		if err != nil {
			return rule, formatCUEError(err, v)
		}
		switch s {
		case "first":
			rule.Priority = rules.PriorityFirst
		case "last":
			rule.Priority = rules.PriorityLast
		}
	}

	if a := v.LookupPath(cue.ParsePath("action")); a.Exists() {
		actionName, err := a.String()
		if err != nil {
			return rule, formatCUEError(err, v)
		}
		action, ok := cat.Actions[actionName]
		if !ok {
			return rule, &CompileError{
				Field:   "action",
				Message: fmt.Sprintf("rule %s: unknown action %q", name, actionName),
				Pos:     a.Pos(),
			}
		}
		rule.Action = action
	}

	return rule, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err, v)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err, iter.Value())
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError is a grammar file error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors. Schema conflicts
// may list only positions inside the schema; those fall back to at.
func formatCUEError(err error, at cue.Value) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	pos := at.Pos()
	for _, p := range errors.Positions(first) {
		if p.IsValid() && p.Filename() != schemaFile {
			pos = p
			break
		}
	}
	return &CompileError{
		Field:   "cue",
		Message: first.Error(),
		Pos:     pos,
	}
}
