package ir

import (
	"maps"
	"slices"
)

// Trait is one extracted fact about a text: a measurement, a categorical
// state, or a count. Offsets are half-open character (rune) offsets into the
// original text.
//
// Numeric values are stored in canonical units (millimetres for lengths,
// grams for masses). A range produces two values.
type Trait struct {
	Name          string            `json:"trait"`
	Start         int               `json:"start"`
	End           int               `json:"end"`
	Values        []float64         `json:"values,omitempty"`
	Units         []string          `json:"units,omitempty"`
	UnitsInferred bool              `json:"units_inferred,omitempty"`
	Label         string            `json:"label,omitempty"`
	Flags         map[string]bool   `json:"flags,omitempty"`
	Attrs         map[string]string `json:"attrs,omitempty"`
}

// Well-known flag names set by the numeric builders.
const (
	FlagAmbiguousKey   = "ambiguous_key"
	FlagEstimatedValue = "estimated_value"
	FlagShorthand      = "is_shorthand"
	FlagRange          = "is_range"
)

// Value returns the first value or 0 when the trait has none.
func (t Trait) Value() float64 {
	if len(t.Values) == 0 {
		return 0
	}
	return t.Values[0]
}

// Flag reports whether the named flag is set.
func (t Trait) Flag(name string) bool {
	return t.Flags[name]
}

// SetFlag sets a boolean flag, allocating the map on first use.
func (t *Trait) SetFlag(name string) {
	if t.Flags == nil {
		t.Flags = make(map[string]bool)
	}
	t.Flags[name] = true
}

// Attr returns the named attribute or "".
func (t Trait) Attr(name string) string {
	return t.Attrs[name]
}

// SetAttr sets a string attribute. Empty values are ignored.
func (t *Trait) SetAttr(name, value string) {
	if value == "" {
		return
	}
	if t.Attrs == nil {
		t.Attrs = make(map[string]string)
	}
	t.Attrs[name] = value
}

// Span returns the half-open offsets of the trait.
func (t Trait) Span() (int, int) {
	return t.Start, t.End
}

// Clone returns a deep copy.
func (t Trait) Clone() Trait {
	c := t
	c.Values = slices.Clone(t.Values)
	c.Units = slices.Clone(t.Units)
	c.Flags = maps.Clone(t.Flags)
	c.Attrs = maps.Clone(t.Attrs)
	return c
}

// canonicalObject converts the trait into the map form used for hashing.
// Empty optional fields are omitted so that adding a field to Trait does not
// change the identity of traits that never set it.
func (t Trait) canonicalObject() map[string]any {
	obj := map[string]any{
		"trait": t.Name,
		"start": t.Start,
		"end":   t.End,
	}
	if len(t.Values) > 0 {
		vals := make([]any, len(t.Values))
		for i, v := range t.Values {
			vals[i] = v
		}
		obj["values"] = vals
	}
	if len(t.Units) > 0 {
		units := make([]any, len(t.Units))
		for i, u := range t.Units {
			units[i] = u
		}
		obj["units"] = units
	}
	if t.UnitsInferred {
		obj["units_inferred"] = true
	}
	if t.Label != "" {
		obj["label"] = t.Label
	}
	if len(t.Flags) > 0 {
		flags := make(map[string]any, len(t.Flags))
		for k, v := range t.Flags {
			flags[k] = v
		}
		obj["flags"] = flags
	}
	if len(t.Attrs) > 0 {
		attrs := make(map[string]any, len(t.Attrs))
		for k, v := range t.Attrs {
			attrs[k] = v
		}
		obj["attrs"] = attrs
	}
	return obj
}

// SortTraits orders traits by start offset, then end offset, then name.
// The sort is stable so traits from the same match keep action order.
func SortTraits(traits []Trait) {
	slices.SortStableFunc(traits, func(a, b Trait) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		if a.End != b.End {
			return a.End - b.End
		}
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
}
