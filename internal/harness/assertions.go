package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/query"
	"github.com/roach88/traiter/internal/store"
)

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	Ctx       context.Context
	Store     *store.Store
	RunID     string
	Extractor *engine.Extractor
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Cases    []CaseResult // Every case for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Cases) > 0 {
		fmt.Fprintf(&buf, "\nTraits:\n")
		for i, c := range e.Cases {
			fmt.Fprintf(&buf, "  [%d] %q: %s\n", i+1, c.Text, describe(c.Traits))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraitCount:
			err = assertTraitCount(result, a)
		case AssertStoredCount:
			err = assertStoredCount(actx, a)
		case AssertDeterministic:
			err = assertDeterministic(result, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraitCount checks how many traits with the given name the cases
// produced in total.
func assertTraitCount(result *Result, a Assertion) error {
	count := 0
	for _, t := range result.Traits() {
		if t.Name == a.Trait {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraitCount,
			Expected: fmt.Sprintf("%d %s trait(s)", a.Count, a.Trait),
			Actual:   fmt.Sprintf("%d", count),
			Cases:    result.Cases,
		}
	}
	return nil
}

// assertStoredCount reads the run's traits back out of the store through
// a compiled query, so it checks the write path and the query path
// together.
func assertStoredCount(actx *AssertionContext, a Assertion) error {
	preds := []query.Predicate{query.Equals{Field: "run_id", Value: actx.RunID}}
	if a.Trait != "" {
		preds = append(preds, query.Equals{Field: "trait", Value: a.Trait})
	}
	if a.Flag != "" {
		preds = append(preds, query.HasFlag{Flag: a.Flag})
	}

	sql, params, err := query.Compile(query.Select{Filter: query.And{Predicates: preds}})
	if err != nil {
		return err
	}
	stored, err := actx.Store.QueryTraits(actx.Ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(stored) != a.Count {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d stored trait(s) matching trait=%q flag=%q", a.Count, a.Trait, a.Flag),
			Actual:   fmt.Sprintf("%d", len(stored)),
		}
	}
	return nil
}

// assertDeterministic parses every case again and compares canonical JSON
// with the first parse.
func assertDeterministic(result *Result, actx *AssertionContext) error {
	for _, c := range result.Cases {
		first, err := ir.MarshalCanonical(traitList(c.Traits))
		if err != nil {
			return err
		}
		again, err := ir.MarshalCanonical(traitList(actx.Extractor.Extract(c.Text)))
		if err != nil {
			return err
		}
		if !bytes.Equal(first, again) {
			return &AssertionError{
				Type:     AssertDeterministic,
				Expected: string(first),
				Actual:   string(again),
			}
		}
	}
	return nil
}

func traitList(traits []ir.Trait) []any {
	out := make([]any, len(traits))
	for i, t := range traits {
		out[i] = t
	}
	return out
}
