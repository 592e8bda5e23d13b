package query

// Predicate is a filter condition over stored traits.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads traits matching Filter. A nil Filter matches every trait.
// Limit <= 0 means no limit.
type Select struct {
	Filter Predicate
	Limit  int
}

// Equals matches traits whose Field equals Value. Value is a string for
// text columns and a number for numeric columns.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Range matches traits whose numeric Field lies within [Min, Max].
// A nil bound is open.
type Range struct {
	Field string
	Min   *float64
	Max   *float64
}

func (Range) predicateNode() {}

// HasFlag matches traits with the named flag set, e.g. "is_range".
type HasFlag struct {
	Flag string
}

func (HasFlag) predicateNode() {}

// And matches when all predicates match (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// fieldKind classifies the traits columns a predicate may name.
type fieldKind int

const (
	textField fieldKind = iota + 1
	numericField
)

// fields are the traits columns open to queries. body and flags are
// reachable only through HasFlag.
var fields = map[string]fieldKind{
	"trait":        textField,
	"run_id":       textField,
	"record_id":    textField,
	"units":        textField,
	"value":        numericField,
	"start_offset": numericField,
	"end_offset":   numericField,
	"seq":          numericField,
}

// Float returns a pointer to f, for Range bounds.
func Float(f float64) *float64 {
	return &f
}
