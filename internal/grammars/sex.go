package grammars

import (
	"strings"

	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/rules"
)

// FlagUncertain marks a categorical value written with a question mark.
const FlagUncertain = "uncertain"

// Sex parses sex notations: "sex: female", "sex m", "male?".
func Sex() *rules.Registry {
	reg := rules.NewRegistry()

	reg.Keyword("sex_key", `sex`)
	reg.Keyword("sex_value", `males? | females?`)
	reg.Keyword("sex_abbrev", `[mf]`)
	reg.Fragment("quest", `[?]`)
	reg.Keyword("word", `[a-z] \w*`, rules.NoCapture(), rules.Last())

	reg.Replacer("value", `sex_value quest?`)

	// A bare m or f is only a sex after a key
	reg.Producer("keyed", `sex_key (?: value | sex_abbrev quest? )`, convertSex)
	reg.Producer("unkeyed", `value`, convertSex)

	return reg
}

func convertSex(tok *ir.Token) []ir.Trait {
	raw := tok.Groups.First("sex_value")
	if raw == "" {
		raw = tok.Groups.First("sex_abbrev")
	}
	if raw == "" {
		return nil
	}

	t := ir.Trait{}
	switch strings.ToLower(raw)[:1] {
	case "m":
		t.Label = "male"
	case "f":
		t.Label = "female"
	default:
		return nil
	}
	if tok.Groups.Has("quest") {
		t.SetFlag(FlagUncertain)
	}
	return []ir.Trait{t}
}

var sex = Builtin{
	Name:        "sex",
	Description: "sex of the specimen",
	Registry:    Sex,
	Extra:       []string{"word"},
}
