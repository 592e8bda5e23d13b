package engine

import (
	"errors"
	"fmt"
)

// RuntimeErrorCode categorizes errors raised while parsing.
type RuntimeErrorCode string

const (
	// ErrCodeMatchFailed indicates a regex match failed, usually by
	// exceeding the grammar's match timeout.
	ErrCodeMatchFailed RuntimeErrorCode = "MATCH_FAILED"

	// ErrCodeSinkFailed indicates an extraction sink rejected a result.
	ErrCodeSinkFailed RuntimeErrorCode = "SINK_FAILED"
)

// RuntimeError is a non-configuration failure during a parse or an
// extraction run.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Rule    string
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] rule %s: %s", e.Code, e.Rule, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsMatchError reports whether err is or wraps a failed regex match.
func IsMatchError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeMatchFailed
}
