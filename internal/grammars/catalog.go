package grammars

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/numeric"
	"github.com/roach88/traiter/internal/rules"
)

// Builtin is a grammar shipped with the module.
type Builtin struct {
	Name        string
	Description string
	Registry    func() *rules.Registry

	// Extra names rules compiled besides the producers, usually
	// separators and catch-all words that keep tokens apart.
	Extra []string

	FixUps []compiler.FixUp
}

// Roots returns the rules compiled for reg: every producer, then Extra.
func (b Builtin) Roots(reg *rules.Registry) []string {
	return append(reg.Producers(), b.Extra...)
}

// Compile compiles the grammar. Traits it produces are named after it.
func (b Builtin) Compile(opts ...compiler.Option) (*compiler.Grammar, error) {
	reg := b.Registry()
	base := []compiler.Option{compiler.WithName(b.Name), compiler.WithFixUps(b.FixUps...)}
	return compiler.Compile(reg, b.Roots(reg), append(base, opts...)...)
}

var builtins = []Builtin{bodyMass, totalLength, sex}

// Builtins returns the built-in grammars ordered by name.
func Builtins() []Builtin {
	out := slices.Clone(builtins)
	slices.SortFunc(out, func(a, b Builtin) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Lookup finds a built-in grammar by name.
func Lookup(name string) (Builtin, bool) {
	for _, b := range builtins {
		if b.Name == name {
			return b, true
		}
	}
	return Builtin{}, false
}

// Compile compiles the named built-in grammars in the order given.
func Compile(names []string, opts ...compiler.Option) ([]*compiler.Grammar, error) {
	out := make([]*compiler.Grammar, 0, len(names))
	for _, name := range names {
		b, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown grammar %q", name)
		}
		g, err := b.Compile(opts...)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Catalog exposes the builders, fix-ups and base registries to grammar
// files.
func Catalog() compiler.Catalog {
	return compiler.Catalog{
		Actions: map[string]rules.Action{
			"simple":          numeric.Simple,
			"compound_mass":   numeric.CompoundMass,
			"compound_length": numeric.CompoundLength,
			"fraction":        numeric.Fraction,
			"shorthand_mass":  numeric.ShorthandMass,
			"shorthand_tl":    numeric.ShorthandLength("tl"),
			"shorthand_tal":   numeric.ShorthandLength("tal"),
			"shorthand_hfl":   numeric.ShorthandLength("hfl"),
			"shorthand_el":    numeric.ShorthandLength("el"),
			"sex":             convertSex,
			"label":           label,
		},
		FixUps: map[string]compiler.FixUp{
			"inches":       numeric.FixUpInches,
			"shorthand":    numeric.FixUpShorthand,
			"total_length": FixUpTotalLength,
		},
		Bases: map[string]func() *rules.Registry{
			"shared":       Shared,
			"body_mass":    BodyMass,
			"total_length": TotalLength,
			"sex":          Sex,
		},
	}
}

// label labels a trait with the text of its first "label" group.
func label(tok *ir.Token) []ir.Trait {
	l := tok.Groups.First("label")
	if l == "" {
		return nil
	}
	return []ir.Trait{{Label: l}}
}
