package harness

import "github.com/roach88/traiter/internal/ir"

// CaseResult is the outcome of parsing one case.
type CaseResult struct {
	Text   string     `json:"text"`
	Seq    int64      `json:"seq"`
	Traits []ir.Trait `json:"traits"`

	// Tokens is each grammar's final token stream, "rule start:end".
	Tokens map[string][]string `json:"tokens"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID is the run the traits were stored under.
	RunID string `json:"run_id"`

	// Cases holds every case's traits in scenario order. Used for golden
	// comparison.
	Cases []CaseResult `json:"cases"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Traits returns every trait across all cases.
func (r *Result) Traits() []ir.Trait {
	var out []ir.Trait
	for _, c := range r.Cases {
		out = append(out, c.Traits...)
	}
	return out
}
