package numeric

// Pattern text shared by grammars and the parsers in this package. They
// are written for regexp2 with IgnoreCase and IgnorePatternWhitespace.
const (
	// ShorthandNumber is a shorthand field value. A bare leading dot is
	// allowed only after a non-digit.
	ShorthandNumber = `\d+ (?: \. \d+ )? | (?<= [^\d] ) \. \d+`

	// ShorthandValue is a shorthand field: a number, or ?, x or n/d for an
	// unknown measurement.
	ShorthandValue = `(?: ` + ShorthandNumber + ` | [?x]{1,2} | n/?d )`

	// MetricMass matches gram based mass units.
	MetricMass = `(?: milligram | kilogram | gram ) (?: s (?! [a-z] ) )?
		| (?: m \.? g | k \.? \s? g | g[mr]? ) (?: s (?! [a-z] ) )?`

	// ShorthandPattern matches measurement shorthand such as 11-22-33-44:55g:
	// total, tail, hind foot and ear lengths, then an optional mass.
	// The four fields share one separator. Extension fields like -fa64
	// may follow the ear length. A value in brackets is estimated.
	ShorthandPattern = `
		(?<! [\d/a-z-] )
		(?<shorthand_tl> (?<estimated_tl> \[ )? ` + ShorthandValue + ` \]? )
		(?<shorthand_sep> [:/-] )
		(?<shorthand_tal> (?<estimated_tal> \[ )? ` + ShorthandValue + ` \]? )
		\k<shorthand_sep>
		(?<shorthand_hfl> (?<estimated_hfl> \[ )? ` + ShorthandValue + ` \]? )
		\k<shorthand_sep>
		(?<shorthand_el> (?<estimated_el> \[ )? ` + ShorthandValue + ` \]? )
		(?<shorthand_ext> (?: \k<shorthand_sep> [a-z]{1,4} ` + ShorthandValue + ` )* )
		(?: [\s=:/-] \s*
			(?<estimated_wt> \[ )? \s*
			(?<shorthand_wt> ` + ShorthandValue + ` ) \s*
			\]?
			(?<shorthand_wt_units> ` + MetricMass + ` )?
			\s*? \]?
		)?
		(?! [\d/:=a-z-] )
	`
)
