package numeric

import (
	"slices"
	"strings"

	"github.com/roach88/traiter/internal/ir"
)

// Simple builds a trait from every "number" group, converted by the
// matching "units" group. With fewer units than numbers the last unit
// applies to the rest; with none the units are inferred.
func Simple(tok *ir.Token) []ir.Trait {
	var t ir.Trait
	units := tok.Groups.All("units")
	for i, raw := range tok.Groups.All("number") {
		v, ok := ToFloat(raw)
		if !ok {
			return nil
		}
		unit := ""
		switch {
		case i < len(units):
			unit = units[i]
		case len(units) > 0:
			unit = units[len(units)-1]
		}
		t.Values = append(t.Values, Convert(v, unit))
	}
	if len(t.Values) == 0 {
		return nil
	}
	setUnits(&t, units)
	addFlags(tok, &t)
	return []ir.Trait{t}
}

// CompoundMass builds a trait from pounds and ounces, like
// "2 lbs. 3.1 - 4.5 oz". An ounce range gives two values.
func CompoundMass(tok *ir.Token) []ir.Trait {
	return compound(tok, "lbs", "ozs", "pounds", "ounces")
}

// CompoundLength builds a trait from feet and inches, like "4 ft 9 in".
func CompoundLength(tok *ir.Token) []ir.Trait {
	return compound(tok, "ft", "in", "feet", "inches")
}

func compound(tok *ir.Token, major, minor, majorUnits, minorUnits string) []ir.Trait {
	mv, ok := ToFloat(tok.Groups.First(major))
	if !ok {
		return nil
	}
	mu := tok.Groups.First(majorUnits)
	nu := tok.Groups.First(minorUnits)
	base := Convert(mv, mu)

	t := ir.Trait{Units: []string{NormalizeUnits(mu), NormalizeUnits(nu)}}
	for _, raw := range tok.Groups.All(minor) {
		v, ok := ToFloat(raw)
		if !ok {
			return nil
		}
		t.Values = append(t.Values, Round(base+Convert(v, nu)))
	}
	if len(t.Values) == 0 {
		return nil
	}
	if !tok.Groups.Has("key") {
		t.SetFlag(ir.FlagAmbiguousKey)
	}
	addFlags(tok, &t)
	return []ir.Trait{t}
}

// Fraction builds a trait from a value like "10 3/8 in". A zero
// denominator rejects the match.
func Fraction(tok *ir.Token) []ir.Trait {
	whole, _ := ToFloat(tok.Groups.First("whole"))
	num, ok := ToFloat(tok.Groups.First("numerator"))
	if !ok {
		return nil
	}
	den, ok := ToFloat(tok.Groups.First("denominator"))
	if !ok || den == 0 {
		return nil
	}

	units := tok.Groups.All("units")
	value := whole + num/den
	if len(units) > 0 {
		value = Convert(value, units[0])
	}
	t := ir.Trait{Values: []float64{value}}
	setUnits(&t, units)
	addFlags(tok, &t)
	return []ir.Trait{t}
}

// ShorthandMass builds a mass trait from the weight of a shorthand
// notation. Shorthand without a weight, or with an unknown one, is
// rejected.
func ShorthandMass(tok *ir.Token) []ir.Trait {
	v, ok := ToFloat(tok.Groups.First("shorthand_wt"))
	if !ok || v == 0 {
		return nil
	}
	units := tok.Groups.All("shorthand_wt_units")
	t := ir.Trait{}
	if len(units) > 0 {
		v = Convert(v, units[0])
	}
	t.Values = []float64{v}
	setUnits(&t, units)
	shorthandFlags(tok, &t, "wt")
	return []ir.Trait{t}
}

// ShorthandLength returns an action that builds a length trait from one
// positional shorthand field: "tl", "tal", "hfl" or "el". Shorthand
// lengths are always millimetres.
func ShorthandLength(field string) func(*ir.Token) []ir.Trait {
	return func(tok *ir.Token) []ir.Trait {
		raw := tok.Groups.First("shorthand_" + field)
		if strings.ContainsAny(raw, "?xX/") {
			return nil
		}
		v, ok := ToFloat(raw)
		if !ok || v == 0 {
			return nil
		}
		t := ir.Trait{Values: []float64{v}, Units: []string{Millimetres}}
		shorthandFlags(tok, &t, field)
		return []ir.Trait{t}
	}
}

func shorthandFlags(tok *ir.Token, t *ir.Trait, field string) {
	t.SetFlag(ir.FlagShorthand)
	if strings.Contains(tok.Groups.First("estimated_"+field), "[") {
		t.SetFlag(ir.FlagEstimatedValue)
	}
	for key, value := range ParseExtensions(tok.Groups.First("shorthand_ext")) {
		t.SetAttr("shorthand_"+key, value)
	}
}

func setUnits(t *ir.Trait, units []string) {
	if len(units) == 0 {
		t.UnitsInferred = true
		return
	}
	for _, u := range units {
		u = NormalizeUnits(u)
		if !slices.Contains(t.Units, u) {
			t.Units = append(t.Units, u)
		}
	}
}

func addFlags(tok *ir.Token, t *ir.Trait) {
	if tok.Groups.Has("ambiguous_key") {
		t.SetFlag(ir.FlagAmbiguousKey)
	}
	if strings.Contains(tok.Groups.First("estimated_value"), "[") {
		t.SetFlag(ir.FlagEstimatedValue)
	}
	if len(t.Values) > 1 {
		t.SetFlag(ir.FlagRange)
	}
}
