package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/traiter/internal/ir"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with one grammar.
func createTestRun(t *testing.T, s *Store, id string, seq int64) Run {
	t.Helper()
	run := Run{
		ID:            id,
		Grammars:      []string{"body_mass"},
		EngineVersion: ir.EngineVersion,
		Seq:           seq,
	}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// massTrait builds a body_mass trait with minimal required fields.
func massTrait(start, end int, grams float64) ir.Trait {
	return ir.Trait{
		Name:   "body_mass",
		Start:  start,
		End:    end,
		Values: []float64{grams},
		Units:  []string{"g"},
	}
}
