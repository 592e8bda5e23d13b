package grammars

import (
	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/numeric"
	"github.com/roach88/traiter/internal/rules"
)

// BodyMass parses body mass notations: "body mass=20 g", "Weight (g) 0.77",
// "2 lbs. 3.1 - 4.5 oz" and the mass field of shorthand like
// "11-22-33-44:55g".
func BodyMass() *rules.Registry {
	reg := Shared()

	// MassInGrams
	reg.Keyword("key_with_units", `
		(?: weight | mass ) [\s-]* in [\s-]* (?<units> grams | g | lbs )`)

	reg.Fragment("key_leader", rules.Words("full observed total"))
	reg.Fragment("weight", rules.Words(`weights? weigh(?:ed|ing|s)?`))
	reg.Fragment("key_with_dots", `\b w \.? \s? t s? \.?`)
	reg.Fragment("mass", `mass`)
	reg.Fragment("body", `body`)

	// Organ weights are not body mass
	reg.Keyword("other_wt", rules.Words(`
		femur baculum bacu bac spleen thymus kidney
		testes testis ovaries epididymis epid`))

	reg.Replacer("wt_key", `
		(?<! other_wt )
		(?: key_leader weight | key_leader mass
			| body weight | body mass | body
			| weight | mass | key_with_dots )`)
	reg.Replacer("key", `shorthand_key | wt_key`)

	reg.Producer("compound", `key? compound_wt`, numeric.CompoundMass)
	reg.Producer("shorthand_mass", rules.Alt(`key shorthand`, `shorthand`), numeric.ShorthandMass)
	reg.Producer("units_first", `key mass_units range (?! mass_units )`, numeric.Simple)
	reg.Producer("simple", `key range mass_units?`, numeric.Simple)
	reg.Producer("with_units", `key_with_units range`, numeric.Simple)

	return reg
}

var bodyMass = Builtin{
	Name:        "body_mass",
	Description: "body mass in grams",
	Registry:    BodyMass,
	Extra:       []string{"uuid", "word", "semicolon", "comma"},
	FixUps:      []compiler.FixUp{numeric.FixUpShorthand},
}
