package testutil

// FixedRunIDs generates the same run ID every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedRunIDs produces byte-identical
// stored rows.
//
// Unlike engine.SequentialRunIDs which counts up, this generator always
// returns the same ID.
//
// Thread-safety: FixedRunIDs is stateless and safe for concurrent use.
type FixedRunIDs struct {
	id string
}

// NewFixedRunIDs creates a new fixed run ID generator.
//
// The ID is typically set in the scenario YAML:
//
//	run_id: "test-run-0001"
//
// If id is empty, Next() returns "test-run-default".
func NewFixedRunIDs(id string) *FixedRunIDs {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDs{id: id}
}

// Next returns the fixed run ID.
//
// Implements engine.RunIDs.
func (g *FixedRunIDs) Next() string {
	return g.id
}
