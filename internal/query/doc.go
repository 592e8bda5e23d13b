// Package query provides a small predicate IR for reading stored traits.
//
//	[CLI flags] → [Query IR] → [SQL over the traits table]
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so the compiler's type switch is
// exhaustive:
//
//   - Equals: column = value
//   - Range: min <= column <= max, either bound optional
//   - HasFlag: the trait has a boolean flag set
//   - And: all predicates must be true
//
// Validate checks field names against the traits columns before anything
// reaches SQL. Compiled SQL is always parameterized and always ends with
// ORDER BY seq ASC, start_offset ASC, id COLLATE BINARY ASC, so the same
// query over the same store returns rows in the same order.
package query
