package engine

import (
	"errors"
	"fmt"
)

// passLimiter counts replace passes within one parse and enforces the
// ceiling.
//
// Acyclic grammars always reach a fixed point because every replacement
// shrinks or relabels the token stream, but a replacer that rewrites a
// token into another token it matches again would loop forever. The
// ceiling guarantees termination.
type passLimiter struct {
	max     int
	current int
}

func newPassLimiter(max int) *passLimiter {
	return &passLimiter{max: max}
}

// Check counts one more pass and fails once the ceiling is passed.
func (l *passLimiter) Check(grammar string) error {
	l.current++
	if l.current > l.max {
		return &PassLimitError{
			Grammar: grammar,
			Passes:  l.current,
			Limit:   l.max,
		}
	}
	return nil
}

// PassLimitError reports a parse whose replace phase did not reach a fixed
// point within the pass ceiling. The parse still produces traits from the
// last token stream reached.
type PassLimitError struct {
	Grammar string
	Passes  int
	Limit   int
}

func (e *PassLimitError) Error() string {
	return fmt.Sprintf("grammar %s: replace phase exceeded %d passes", e.Grammar, e.Limit)
}

// IsPassLimitError reports whether err is or wraps a PassLimitError.
func IsPassLimitError(err error) bool {
	var pe *PassLimitError
	return errors.As(err, &pe)
}
