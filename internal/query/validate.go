package query

import (
	"errors"
	"fmt"
)

// ValidationError reports one invalid predicate.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every predicate in q and returns all problems joined.
//
// Validate is a pure function with no side effects.
func Validate(q Select) error {
	v := &validator{}
	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}
	if q.Limit < 0 {
		v.add("", "negative limit %d", q.Limit)
	}
	return errors.Join(v.errs...)
}

// validator accumulates errors during traversal.
type validator struct {
	errs []error
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Range:
		v.validateRange(pred)
	case *Range:
		v.validateRange(*pred)
	case HasFlag:
		v.validateFlag(pred.Flag)
	case *HasFlag:
		v.validateFlag(pred.Flag)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case nil:
		v.add("", "nil predicate")
	default:
		v.add("", "unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	kind, ok := fields[eq.Field]
	if !ok {
		v.add(eq.Field, "unknown field")
		return
	}
	switch eq.Value.(type) {
	case string:
		if kind != textField {
			v.add(eq.Field, "numeric field compared to string %q", eq.Value)
		}
	case int, int64, float64:
		if kind != numericField {
			v.add(eq.Field, "text field compared to number %v", eq.Value)
		}
	case nil:
		v.add(eq.Field, "compared to nil; use a Range or a concrete value")
	default:
		v.add(eq.Field, "unsupported value type %T", eq.Value)
	}
}

func (v *validator) validateRange(r Range) {
	kind, ok := fields[r.Field]
	if !ok {
		v.add(r.Field, "unknown field")
		return
	}
	if kind != numericField {
		v.add(r.Field, "range over text field")
	}
	switch {
	case r.Min == nil && r.Max == nil:
		v.add(r.Field, "range needs a min or a max")
	case r.Min != nil && r.Max != nil && *r.Min > *r.Max:
		v.add(r.Field, "min %v greater than max %v", *r.Min, *r.Max)
	}
}

// validateFlag restricts flag names to the identifier characters flags are
// written with, which also keeps LIKE wildcards out of the pattern.
func (v *validator) validateFlag(flag string) {
	if flag == "" {
		v.add("flags", "empty flag name")
		return
	}
	for _, r := range flag {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			v.add("flags", "invalid flag name %q", flag)
			return
		}
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
