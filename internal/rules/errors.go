package rules

import (
	"errors"
	"fmt"
)

// Configuration error codes (E200-E299).
const (
	// Declaration errors (E201-E205)
	ErrDuplicateRule    = "E201" // name declared twice
	ErrInvalidName      = "E202" // name does not match [a-z][a-z0-9_]* or contains "__"
	ErrEmptyPattern     = "E203" // pattern is blank
	ErrMissingAction    = "E204" // producer without an action
	ErrUnexpectedAction = "E205" // action on a non-producer

	// Reference errors (E210-E214)
	ErrUndeclaredRef   = "E210" // reference to a name never declared
	ErrProducerRef     = "E211" // producers cannot be referenced
	ErrTokenRefInText  = "E212" // {name} names a token level rule
	ErrReferenceCycle  = "E213" // rules reference each other in a loop
	ErrInlineInTokenRE = "E214" // {name} inside a replacer or producer pattern

	// Compilation errors (E220-E224)
	ErrMalformedPattern = "E220" // regex engine rejected the pattern
	ErrBadBackref       = "E221" // back-reference to an undefined group
	ErrGroupBudget      = "E222" // too many named groups
	ErrTooManyRules     = "E223" // token codes exhausted
	ErrNoRules          = "E224" // nothing to compile
)

// ConfigError is a grammar configuration error. Configuration errors are
// collected while rules are declared and compiled, and are always reported
// before any text is parsed.
type ConfigError struct {
	Code    string `json:"code"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Rule, e.Message)
}

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(code, rule, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ConfigErrors flattens err (which may be joined) into its ConfigErrors.
// Errors of other types are dropped.
func ConfigErrors(err error) []*ConfigError {
	if err == nil {
		return nil
	}
	var out []*ConfigError
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ce *ConfigError
		if errors.As(e, &ce) {
			out = append(out, ce)
		}
	}
	walk(err)
	return out
}

// HasCode reports whether err carries a ConfigError with the given code.
func HasCode(err error, code string) bool {
	for _, ce := range ConfigErrors(err) {
		if ce.Code == code {
			return true
		}
	}
	return false
}
