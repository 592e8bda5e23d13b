package engine

import "sync/atomic"

// Sequence hands out strictly increasing sequence numbers. Extraction
// results and stored rows are ordered by sequence number, never by wall
// clock, so re-running an extraction over the same input reproduces the
// same order.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next is start+1. Pass the
// highest number already stored to continue after it.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next returns the next number.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last number handed out.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}
