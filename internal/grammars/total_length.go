package grammars

import (
	"github.com/dlclark/regexp2"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/numeric"
	"github.com/roach88/traiter/internal/rules"
)

// How far around a total length to look for context that disqualifies it.
const (
	lookBackNear = 10
	lookAround   = 10
)

var (
	isID     = regexp2.MustCompile(`identifier | ident | id | collector`, compiler.RegexOptions)
	isTrap   = regexp2.MustCompile(`trap`, compiler.RegexOptions)
	isTestes = regexp2.MustCompile(`reproductive | gonad | test | scrotal | scrotum | scrot`, compiler.RegexOptions)
	isRight  = regexp2.MustCompile(`\b r \b`, compiler.RegexOptions)
)

// TotalLength parses total length notations: "total length 120 mm",
// "TL 3/4\"", "4 ft 9 in" and the first field of shorthand.
func TotalLength() *rules.Registry {
	reg := Shared()

	// TotalLengthInMillimeters
	reg.Keyword("key_with_units", `
		(?: total | snout \s* vent | head \s* body | fork ) \s*
		(?: length | len )? \s* in \s* (?<units> millimeters | mm )`)

	reg.Fragment("len_key", `
		t \s* [o.]? \s* l [._]? (?! [a-z] )
		| total [\s-]* length [\s-]* in
		| (?: total | max | standard ) [\s-]* lengths? \b
		| meas [\s*:]? \s* length [\s(]* [l] [)\s:]*
		| s \.? \s? v \.? \s? l \.? (?! [a-z.] )
		| snout [\s-]* vent [\s-]* lengths? \b
		| (?: fork | mean | body ) [\s-]* lengths? \b`)

	// Lengths of things that are not the animal
	reg.Keyword("skip", rules.Words(`horns? tag`))

	// "length" on its own, not part of a longer key
	reg.Fragment("ambiguous", `(?<! [a-z] \s* ) (?<ambiguous_key> lengths? )`)

	// These are keys only when units follow
	reg.Fragment("key_units_req", rules.Words(`measurements? body total`))

	// L: 120, where L may also mean left
	reg.Fragment("char_key", `\b (?<ambiguous_key> l ) (?= [:=-] )`)

	reg.Replacer("key", `
		(?: key_with_units | len_key | shorthand_key | ambiguous | char_key ) eq?`)

	reg.Producer("units_after_key", `range len_units key`, totalLengthSimple)
	reg.Producer("simple", `key range len_units?`, totalLengthSimple)
	reg.Producer("units_first", `key len_units range`, totalLengthSimple)
	reg.Producer("units_required", `key_units_req range len_units`, totalLengthSimple)
	reg.Producer("compound", `key? compound_len`, numeric.CompoundLength)
	reg.Producer("fraction_length", rules.Alt(
		`key fraction len_units?`,
		`key_units_req fraction len_units`,
	), numeric.Fraction)
	reg.Producer("shorthand_length", rules.Alt(`key shorthand`, `shorthand`), numeric.ShorthandLength("tl"))

	return reg
}

// totalLengthSimple drops the ambiguous key flag when a real length key
// was also seen.
func totalLengthSimple(tok *ir.Token) []ir.Trait {
	traits := numeric.Simple(tok)
	for i := range traits {
		if traits[i].Flag(ir.FlagAmbiguousKey) && tok.Groups.Has("len_key") {
			delete(traits[i].Flags, ir.FlagAmbiguousKey)
		}
	}
	return traits
}

// FixUpTotalLength vetoes lengths that are really identifiers, trap
// numbers, testes measurements or left-side measurements, then resolves
// inch marks.
func FixUpTotalLength(t *ir.Trait, text []rune) bool {
	if found(isID, text, max(0, t.Start-numeric.LookBackFar), t.Start) {
		return false
	}
	if found(isTrap, text, max(0, t.Start-lookBackNear), t.Start) {
		return false
	}

	if t.Flag(ir.FlagAmbiguousKey) {
		start := max(0, t.Start-lookAround)
		end := min(len(text), t.End+lookAround)
		if found(isTestes, text, start, t.Start) {
			return false
		}
		// "L" next to an "R" is the left side
		if found(isRight, text, start, t.Start) || found(isRight, text, t.End, end) {
			return false
		}
	}

	return numeric.FixUpInches(t, text)
}

func found(re *regexp2.Regexp, text []rune, start, end int) bool {
	if start >= end {
		return false
	}
	ok, err := re.MatchString(string(text[start:end]))
	return err == nil && ok
}

var totalLength = Builtin{
	Name:        "total_length",
	Description: "total length in millimetres",
	Registry:    TotalLength,
	Extra:       []string{"uuid", "word", "skip", "semicolon", "comma"},
	FixUps:      []compiler.FixUp{FixUpTotalLength},
}
