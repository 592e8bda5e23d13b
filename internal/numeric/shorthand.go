package numeric

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

const regexOptions = regexp2.IgnoreCase | regexp2.IgnorePatternWhitespace

// ShorthandFields are the four positional shorthand measurements.
var ShorthandFields = []string{"tl", "tal", "hfl", "el"}

// Shorthand is a parsed shorthand notation. Field values keep their raw
// text; unknown fields hold "?", "x" or "n/d".
type Shorthand struct {
	Start, End int
	Separator  string
	Fields     map[string]string
	Extensions map[string]string
	Mass       string
	MassUnits  string
	Estimated  map[string]bool
}

// Value returns a field as a number. Unknown fields report false.
func (s Shorthand) Value(field string) (float64, bool) {
	if field == "wt" {
		return ToFloat(s.Mass)
	}
	raw, ok := s.Fields[field]
	if !ok || strings.ContainsAny(raw, "?xX/") {
		return 0, false
	}
	return ToFloat(raw)
}

var (
	shorthandOnce sync.Once
	shorthandRe   *regexp2.Regexp
	extensionRe   *regexp2.Regexp
)

func shorthandRegexps() (*regexp2.Regexp, *regexp2.Regexp) {
	shorthandOnce.Do(func() {
		shorthandRe = regexp2.MustCompile(ShorthandPattern, regexOptions)
		extensionRe = regexp2.MustCompile(`(?<key> [a-z]{1,4} ) (?<value> `+ShorthandValue+` )`, regexOptions)
	})
	return shorthandRe, extensionRe
}

// ParseShorthand finds the first shorthand notation in s.
func ParseShorthand(s string) (Shorthand, bool) {
	re, _ := shorthandRegexps()
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return Shorthand{}, false
	}

	group := func(name string) string {
		if g := m.GroupByName(name); g != nil {
			return g.String()
		}
		return ""
	}

	sh := Shorthand{
		Start:      m.Index,
		End:        m.Index + m.Length,
		Separator:  group("shorthand_sep"),
		Fields:     make(map[string]string, len(ShorthandFields)),
		Extensions: ParseExtensions(group("shorthand_ext")),
		Mass:       group("shorthand_wt"),
		MassUnits:  group("shorthand_wt_units"),
		Estimated:  make(map[string]bool),
	}
	for _, f := range ShorthandFields {
		sh.Fields[f] = strings.Trim(group("shorthand_"+f), "[]")
		if group("estimated_"+f) != "" {
			sh.Estimated[f] = true
		}
	}
	if group("estimated_wt") != "" {
		sh.Estimated["wt"] = true
	}
	return sh, true
}

// ParseExtensions splits shorthand extension fields like "-fa64-hb66" into
// lowercase keys and raw values.
func ParseExtensions(ext string) map[string]string {
	if ext == "" {
		return nil
	}
	_, re := shorthandRegexps()
	out := make(map[string]string)
	m, err := re.FindStringMatch(ext)
	for m != nil && err == nil {
		out[strings.ToLower(m.GroupByName("key").String())] = m.GroupByName("value").String()
		m, err = re.FindNextMatch(m)
	}
	return out
}
