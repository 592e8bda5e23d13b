package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// RunIDs generates extraction run identifiers.
type RunIDs interface {
	Next() string
}

// UUIDv7RunIDs generates time-sortable UUIDv7 run identifiers, so runs list
// in the order they started. It is stateless and safe for concurrent use.
type UUIDv7RunIDs struct{}

// Next returns a hyphenated UUIDv7. It panics if the system random source
// fails.
func (UUIDv7RunIDs) Next() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialRunIDs yields prefix-1, prefix-2, ... and is meant for tests
// and golden files.
type SequentialRunIDs struct {
	Prefix string
	n      atomic.Int64
}

// Next returns the next identifier.
func (s *SequentialRunIDs) Next() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}
