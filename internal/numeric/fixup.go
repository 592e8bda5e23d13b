package numeric

import (
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/roach88/traiter/internal/ir"
)

// LookBackFar is how many characters before a trait the fix-ups search for
// context that invalidates it.
const LookBackFar = 40

var (
	isCollector    = regexp2.MustCompile(`collector`, regexOptions)
	quotesVsInches = regexp2.MustCompile(`^ \d " (?! \s* \} )`, regexOptions)
)

// FixUpShorthand vetoes shorthand traits preceded closely by "collector",
// where the digits are usually a collector number.
func FixUpShorthand(t *ir.Trait, text []rune) bool {
	if !t.Flag(ir.FlagShorthand) {
		return true
	}
	start := max(0, t.Start-LookBackFar)
	ok, err := isCollector.MatchString(string(text[start:t.Start]))
	return err == nil && !ok
}

// FixUpInches reads a double quote right after a unitless value as an inch
// mark, unless the trait already holds a quote. The trait grows to cover
// the mark and its values are converted.
func FixUpInches(t *ir.Trait, text []rune) bool {
	if len(t.Units) > 0 || t.End < 1 || t.End >= len(text) {
		return true
	}
	if slices.Contains(text[t.Start:t.End], '"') {
		return true
	}
	m, err := quotesVsInches.FindRunesMatch(text[t.End-1:])
	if err != nil || m == nil {
		return true
	}

	t.End++
	t.Units = []string{`"`}
	t.UnitsInferred = false
	for i, v := range t.Values {
		t.Values[i] = Convert(v, `"`)
	}
	return true
}
