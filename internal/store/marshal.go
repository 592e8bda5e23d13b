package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/traiter/internal/ir"
)

// marshalTrait converts a trait to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal traits store equal bodies.
func marshalTrait(t ir.Trait) (string, error) {
	data, err := ir.MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("marshal trait: %w", err)
	}
	return string(data), nil
}

// unmarshalTrait parses a stored trait body. Canonical keys match the
// ir.Trait json tags.
func unmarshalTrait(data string) (ir.Trait, error) {
	var t ir.Trait
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return ir.Trait{}, fmt.Errorf("unmarshal trait: %w", err)
	}
	return t, nil
}

// marshalFlags stores set flags as a sorted list wrapped in commas
// (",a,b,") so a single flag can be matched with LIKE '%,name,%'.
func marshalFlags(flags map[string]bool) string {
	var names []string
	for name, set := range flags {
		if set {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	return "," + strings.Join(names, ",") + ","
}

// marshalGrammars stores a run's grammar list as comma separated TEXT.
func marshalGrammars(names []string) string {
	return strings.Join(names, ",")
}

func unmarshalGrammars(data string) []string {
	if data == "" {
		return []string{}
	}
	return strings.Split(data, ",")
}

// FlagPattern returns the LIKE pattern matching traits with flag set.
func FlagPattern(flag string) string {
	return "%," + flag + ",%"
}
