package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/traiter/internal/ir"
)

// Snapshot captures the outcome of a scenario execution for golden
// comparison. It serializes to canonical JSON, so equal runs produce
// byte-identical snapshots.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id"`
	Cases        []CaseResult `json:"cases"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. ir.MarshalCanonical handles maps, slices, primitives and
// ir.Trait.
func (s *Snapshot) toCanonicalMap() map[string]any {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		tokens := make(map[string]any, len(c.Tokens))
		for grammar, toks := range c.Tokens {
			list := make([]any, len(toks))
			for j, tok := range toks {
				list[j] = tok
			}
			tokens[grammar] = list
		}
		cases[i] = map[string]any{
			"text":   c.Text,
			"seq":    c.Seq,
			"traits": traitList(c.Traits),
			"tokens": tokens,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"cases":         cases,
	}
}

// MarshalSnapshot returns the canonical JSON snapshot of a result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snap := Snapshot{ScenarioName: name, RunID: result.RunID, Cases: result.Cases}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
