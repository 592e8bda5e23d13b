package numeric

import (
	"strings"
)

// Dimension is what a unit measures.
type Dimension int

const (
	Length Dimension = iota + 1
	Mass
)

// Unit is one entry of the unit table. Factor converts a value in this unit
// to the dimension's canonical unit.
type Unit struct {
	Dimension Dimension
	Factor    float64
}

// Canonical unit names.
const (
	Millimetres = "mm"
	Grams       = "g"
)

var unitTable = func() map[string]Unit {
	table := make(map[string]Unit)
	add := func(dim Dimension, factor float64, names ...string) {
		for _, name := range names {
			table[name] = Unit{Dimension: dim, Factor: factor}
		}
	}

	add(Length, 1, "mm", "millimeter", "millimeters", "millimetre", "millimetres")
	add(Length, 10, "cm", "centimeter", "centimeters", "centimetre", "centimetres")
	add(Length, 1000, "m", "meter", "meters", "metre", "metres")
	add(Length, 25.4, "in", "ins", "inch", "inches", `"`)
	add(Length, 304.8, "ft", "fts", "foot", "feet", "'")

	add(Mass, 1, "g", "gm", "gms", "gr", "grs", "gram", "grams", "gramme", "grammes")
	add(Mass, 0.001, "mg", "mgs", "milligram", "milligrams")
	add(Mass, 1000, "kg", "kgs", "kilogram", "kilograms")
	add(Mass, 453.592, "lb", "lbs", "pound", "pounds")
	add(Mass, 28.3495, "oz", "ozs", "ounce", "ounces")

	return table
}()

// NormalizeUnits lowercases units and drops spaces and dots, so "K. g" and
// "lbs." look up as "kg" and "lbs".
func NormalizeUnits(units string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '.':
			return -1
		}
		return r
	}, strings.ToLower(units))
}

// LookupUnit finds a unit by any of its spellings.
func LookupUnit(units string) (Unit, bool) {
	u, ok := unitTable[NormalizeUnits(units)]
	return u, ok
}

// Convert converts value from units to the canonical unit of its
// dimension, rounded to two places. Empty or unknown units leave the value
// as it is.
func Convert(value float64, units string) float64 {
	u, ok := LookupUnit(units)
	if !ok {
		return value
	}
	return Round(value * u.Factor)
}
