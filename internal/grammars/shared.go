package grammars

import (
	"sync"

	"github.com/roach88/traiter/internal/numeric"
	"github.com/roach88/traiter/internal/rules"
)

var (
	sharedOnce sync.Once
	shared     *rules.Registry
)

// Shared returns a copy of the fragments common to the numeric grammars:
// numbers and ranges, mass and length units, compound values, fractions,
// shorthand notation, UUIDs, separators and a catch-all word.
func Shared() *rules.Registry {
	sharedOnce.Do(func() {
		shared = buildShared()
	})
	return shared.Clone()
}

func buildShared() *rules.Registry {
	reg := rules.NewRegistry()

	// UUIDs look like shorthand and ranges
	reg.Fragment("uuid", `
		\b [0-9a-f]{8} - [0-9a-f]{4} - [1-5][0-9a-f]{3}
			- [89ab][0-9a-f]{3} - [0-9a-f]{12} \b`, rules.NoCapture())

	// Positive decimals, with optional thousands separators
	reg.Fragment("number", `
		(?: \d{1,3} (?: , \d{3} ){1,3} | \d+ ) (?: \. \d+ )?
		| (?<= [^\d] ) \. \d+ | ^ \. \d+`)

	// 10, 10 - 20, 10 to 20. Dates like 2014-12-11 are not ranges.
	reg.Fragment("range", `
		(?<! \d ) (?<! \d [|,.#+-] ) (?<! \b to \s ) (?<! [#] )
		(?<estimated_value> \[ \s* )?
		{number}
		\]? \s*?
		(?: \s* (?: - | to ) \s* {number} )?
		(?! \d+ | [|,.+-] \d | \s+ to \b )`)

	reg.Fragment("metric_mass", numeric.MetricMass, rules.NoCapture())
	reg.Fragment("pounds", `pounds? | lbs?`, rules.NoCapture())
	reg.Fragment("ounces", `ounces? | ozs?`, rules.NoCapture())
	reg.Fragment("mass_units", `
		(?<! [a-z] ) (?<units> {metric_mass} | {pounds} | {ounces} ) \.? (?! [a-z] )`,
		rules.NoCapture())

	reg.Fragment("metric_len", `
		(?: milli | centi )? meters? | (?: [cm] [\s.]? m ) (?! [a-ru-z] )`, rules.NoCapture())
	reg.Fragment("feet", `
		(?<! [a-z] ) (?: foot s? | feet s? | ft s? (?! [,\w] ) ) | (?<= \d ) '`, rules.NoCapture())
	reg.Fragment("inches", `
		(?<! [a-z] ) (?: inch e? s? | in s? (?! [a-ru-z] ) )`, rules.NoCapture())
	reg.Fragment("len_units", `
		(?<! [a-z] ) (?<units> {metric_len} | {feet} | {inches} ) \.? (?! [a-z] )`,
		rules.NoCapture())

	// 2 lbs. 3.1 - 4.5 oz
	reg.Fragment("compound_wt", `
		(?<lbs> {number} ) \s* (?<pounds> {pounds} ) \.? [\s,]*
		(?<ozs> {number} ) (?: \s* (?: - | to ) \s* (?<ozs> {number} ) )? \s*
		(?<ounces> {ounces} ) \.?`)

	// 4 ft 9 in
	reg.Fragment("compound_len", `
		(?<ft> {number} ) \s* (?<feet> {feet} ) \.? [\s,]*
		(?<in> {number} ) (?: \s* (?: - | to ) \s* (?<in> {number} ) )? \s*
		(?<inches> {inches} ) \.?`)

	// 10 3/8
	reg.Fragment("fraction", `
		(?<! [\d/] ) (?: (?<whole> \d+ ) \s+ )?
		(?<numerator> \d+ ) / (?<denominator> \d+ ) (?! [\d/] )`)

	reg.Fragment("shorthand_key", `
		on \s* tag | specimens? | catalog
		| (?: measurement s? | meas ) [:.,]{0,2} (?: \s* length \s* )?
			(?: \s* [({\[})]? [a-z]{1,2} [)}\]]? \.? )?
		| tag \s+ \d+ \s* =? (?: male | female )? \s* ,
		| measurements? | mesurements? | measurementsnt`)
	reg.Fragment("shorthand", numeric.ShorthandPattern)

	reg.Fragment("eq", `[=:]`, rules.NoCapture())
	reg.Fragment("semicolon", `[;]`, rules.NoCapture())
	reg.Fragment("comma", `[,]`, rules.NoCapture())
	reg.Fragment("quest", `[?]`)

	// Unclaimed words keep unrelated keys and values from becoming adjacent
	reg.Keyword("word", `[a-z] \w*`, rules.NoCapture(), rules.Last())

	return reg
}
