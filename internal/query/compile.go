package query

import (
	"fmt"
	"strings"

	"github.com/roach88/traiter/internal/store"
)

// orderBy is appended to every compiled query.
const orderBy = " ORDER BY seq ASC, start_offset ASC, id COLLATE BINARY ASC"

// Compile validates q and translates it to parameterized SQL selecting
// store.TraitColumns from the traits table. Values never appear in the SQL
// text.
func Compile(q Select) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(store.TraitColumns)
	b.WriteString(" FROM traits")

	var params []any
	if q.Filter != nil {
		where, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(orderBy)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case Range:
		return compileRange(pred)
	case *Range:
		return compileRange(*pred)
	case HasFlag:
		return compileFlag(pred)
	case *HasFlag:
		return compileFlag(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	return eq.Field + " = ?", []any{eq.Value}, nil
}

func compileRange(r Range) (string, []any, error) {
	var parts []string
	var params []any
	if r.Min != nil {
		parts = append(parts, r.Field+" >= ?")
		params = append(params, *r.Min)
	}
	if r.Max != nil {
		parts = append(parts, r.Field+" <= ?")
		params = append(params, *r.Max)
	}
	return strings.Join(parts, " AND "), params, nil
}

func compileFlag(f HasFlag) (string, []any, error) {
	return "flags LIKE ?", []any{store.FlagPattern(f.Flag)}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, " AND "), allParams, nil
}
