package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/ir"
)

func token(groups map[string][]string) *ir.Token {
	g := ir.Groups{}
	for name, values := range groups {
		g.Add(name, values...)
	}
	return &ir.Token{Rule: "test", Start: 0, End: 10, Groups: g}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"1,250.5", 1250.5, true},
		{"[3.2]", 3.2, true},
		{".5", 0.5, true},
		{"?", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 12, ToInt("12 embryos"))
	assert.Equal(t, 0, ToInt("none"))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		value float64
		units string
		want  float64
	}{
		{20, "kg", 20000},
		{20, "K. g", 20000},
		{2, "lbs.", 907.18},
		{3.1, "oz", 87.88},
		{12, "cm", 120},
		{3, `"`, 76.2},
		{1, "ft", 304.8},
		{500, "mg", 0.5},
		{7, "", 7},
		{7, "furlongs", 7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Convert(tt.value, tt.units), 1e-9, "%v %s", tt.value, tt.units)
	}

	u, ok := LookupUnit("Inches")
	require.True(t, ok)
	assert.Equal(t, Length, u.Dimension)
}

func TestParseShorthand(t *testing.T) {
	sh, ok := ParseShorthand("Note in catalog: 83-0-17-23-fa64-35g")
	require.True(t, ok)
	assert.Equal(t, 17, sh.Start)
	assert.Equal(t, "-", sh.Separator)
	assert.Equal(t, map[string]string{"tl": "83", "tal": "0", "hfl": "17", "el": "23"}, sh.Fields)
	assert.Equal(t, map[string]string{"fa": "64"}, sh.Extensions)
	assert.Equal(t, "35", sh.Mass)
	assert.Equal(t, "g", sh.MassUnits)

	v, ok := sh.Value("hfl")
	require.True(t, ok)
	assert.Equal(t, 17.0, v)
}

func TestParseShorthandSeparatorsMustAgree(t *testing.T) {
	_, ok := ParseShorthand("11-22-33-44")
	assert.True(t, ok)

	_, ok = ParseShorthand("11-22/33-44")
	assert.False(t, ok)
}

func TestParseShorthandUnknownAndEstimated(t *testing.T) {
	sh, ok := ParseShorthand("11-x-[33]-44=[5.5]g")
	require.True(t, ok)

	_, ok = sh.Value("tal")
	assert.False(t, ok)
	assert.True(t, sh.Estimated["hfl"])
	assert.True(t, sh.Estimated["wt"])
	assert.False(t, sh.Estimated["tl"])

	v, ok := sh.Value("wt")
	require.True(t, ok)
	assert.Equal(t, 5.5, v)
}

func TestSimple(t *testing.T) {
	traits := Simple(token(map[string][]string{"number": {"10", "20"}, "units": {"g"}}))
	require.Len(t, traits, 1)
	assert.Equal(t, []float64{10, 20}, traits[0].Values)
	assert.Equal(t, []string{"g"}, traits[0].Units)
	assert.True(t, traits[0].Flag(ir.FlagRange))

	traits = Simple(token(map[string][]string{"number": {"5.4"}}))
	require.Len(t, traits, 1)
	assert.True(t, traits[0].UnitsInferred)
	assert.Empty(t, traits[0].Units)

	assert.Nil(t, Simple(token(map[string][]string{"units": {"g"}})))
}

func TestCompoundMass(t *testing.T) {
	traits := CompoundMass(token(map[string][]string{
		"lbs": {"2"}, "pounds": {"lbs"}, "ozs": {"3.1", "4.5"}, "ounces": {"oz"},
	}))
	require.Len(t, traits, 1)
	require.Len(t, traits[0].Values, 2)
	assert.InDelta(t, 995.06, traits[0].Values[0], 1e-9)
	assert.InDelta(t, 1034.75, traits[0].Values[1], 1e-9)
	assert.Equal(t, []string{"lbs", "oz"}, traits[0].Units)
	assert.True(t, traits[0].Flag(ir.FlagAmbiguousKey), "no key preceded the value")
}

func TestCompoundLength(t *testing.T) {
	traits := CompoundLength(token(map[string][]string{
		"key": {"TL"}, "ft": {"4"}, "feet": {"ft"}, "in": {"9"}, "inches": {"in"},
	}))
	require.Len(t, traits, 1)
	assert.InDelta(t, 1447.8, traits[0].Value(), 1e-9)
	assert.False(t, traits[0].Flag(ir.FlagAmbiguousKey))
}

func TestFraction(t *testing.T) {
	traits := Fraction(token(map[string][]string{"whole": {"1"}, "numerator": {"1"}, "denominator": {"2"}, "units": {"in"}}))
	require.Len(t, traits, 1)
	assert.InDelta(t, 38.1, traits[0].Value(), 1e-9)

	assert.Nil(t, Fraction(token(map[string][]string{"numerator": {"1"}, "denominator": {"0"}})))
}

func TestShorthandBuilders(t *testing.T) {
	tok := token(map[string][]string{
		"shorthand_tl": {"83"}, "shorthand_tal": {"x"},
		"shorthand_wt": {"35"}, "shorthand_wt_units": {"g"},
		"estimated_wt": {"["}, "shorthand_ext": {"-fa64"},
	})

	mass := ShorthandMass(tok)
	require.Len(t, mass, 1)
	assert.Equal(t, 35.0, mass[0].Value())
	assert.True(t, mass[0].Flag(ir.FlagShorthand))
	assert.True(t, mass[0].Flag(ir.FlagEstimatedValue))
	assert.Equal(t, "64", mass[0].Attr("shorthand_fa"))

	tl := ShorthandLength("tl")(tok)
	require.Len(t, tl, 1)
	assert.Equal(t, 83.0, tl[0].Value())
	assert.Equal(t, []string{"mm"}, tl[0].Units)

	assert.Nil(t, ShorthandLength("tal")(tok), "unknown field")
	assert.Nil(t, ShorthandMass(token(map[string][]string{"shorthand_tl": {"1"}})), "no weight")
}

func TestFixUpShorthand(t *testing.T) {
	text := []rune("collector 11-22-33-44")
	tr := ir.Trait{Start: 10, End: 21}
	tr.SetFlag(ir.FlagShorthand)
	assert.False(t, FixUpShorthand(&tr, text))

	text = []rune("measurements 11-22-33-44")
	tr.Start, tr.End = 13, 24
	assert.True(t, FixUpShorthand(&tr, text))

	plain := ir.Trait{Start: 10, End: 12}
	assert.True(t, FixUpShorthand(&plain, []rune("collector 12")), "only shorthand traits")
}

func TestFixUpInches(t *testing.T) {
	text := []rune(`total length 3" long`)
	tr := ir.Trait{Start: 0, End: 14, Values: []float64{3}, UnitsInferred: true}
	require.True(t, FixUpInches(&tr, text))
	assert.Equal(t, 15, tr.End)
	assert.Equal(t, []string{`"`}, tr.Units)
	assert.False(t, tr.UnitsInferred)
	assert.InDelta(t, 76.2, tr.Value(), 1e-9)

	quoted := []rune(`"3" }`)
	tr = ir.Trait{Start: 1, End: 2, Values: []float64{3}}
	require.True(t, FixUpInches(&tr, quoted))
	assert.Equal(t, 2, tr.End, "a quote followed by a brace is JSON, not inches")

	withUnits := ir.Trait{Start: 0, End: 14, Values: []float64{3}, Units: []string{"mm"}}
	require.True(t, FixUpInches(&withUnits, text))
	assert.Equal(t, 14, withUnits.End)
}
