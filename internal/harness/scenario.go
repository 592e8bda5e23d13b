package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/traiter/internal/grammars"
)

// Scenario defines a conformance test scenario: a set of grammars and the
// traits they must find in a list of texts.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Grammars lists built-in grammar names.
	Grammars []string `yaml:"grammars,omitempty"`

	// Files lists CUE grammar files. Relative paths are resolved against
	// the scenario file's directory by LoadScenario.
	Files []string `yaml:"files,omitempty"`

	// Cases are the texts to parse, in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the whole run.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Case is one text and what parsing it must produce.
type Case struct {
	Text string `yaml:"text"`

	// Field names the record field the text came from. Defaults to "text".
	Field string `yaml:"field,omitempty"`

	// Expect lists traits that must be found (subset match).
	Expect []ExpectTrait `yaml:"expect,omitempty"`

	// Count, when set, is the exact number of traits expected.
	Count *int `yaml:"count,omitempty"`
}

// ExpectTrait specifies an expected trait. Zero-valued fields are not
// compared.
type ExpectTrait struct {
	Trait  string    `yaml:"trait"`
	Start  *int      `yaml:"start,omitempty"`
	End    *int      `yaml:"end,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
	Units  []string  `yaml:"units,omitempty"`
	Label  string    `yaml:"label,omitempty"`
	Flags  []string  `yaml:"flags,omitempty"`
}

// Assertion validates the whole run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trait_count": Count traits named Trait across all cases
	// - "stored_count": Count stored traits matching Trait and/or Flag
	// - "deterministic": Re-parse every case and compare
	Type string `yaml:"type"`

	Trait string `yaml:"trait,omitempty"`
	Flag  string `yaml:"flag,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraitCount    = "trait_count"
	AssertStoredCount   = "stored_count"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file, resolving grammar
// file paths relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, f := range scenario.Files {
		if !filepath.IsAbs(f) {
			scenario.Files[i] = filepath.Join(base, f)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving or checking file
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Grammars) == 0 && len(s.Files) == 0 {
		return fmt.Errorf("grammars or files is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for _, name := range s.Grammars {
		if _, ok := grammars.Lookup(name); !ok {
			return fmt.Errorf("unknown grammar %q", name)
		}
	}
	for _, f := range s.Files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			return fmt.Errorf("grammar file not found: %s", f)
		}
	}

	for i, c := range s.Cases {
		if c.Count != nil && *c.Count < 0 {
			return fmt.Errorf("cases[%d]: count must be non-negative", i)
		}
		for j, e := range c.Expect {
			if e.Trait == "" {
				return fmt.Errorf("cases[%d].expect[%d]: trait is required", i, j)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraitCount:
		if a.Trait == "" {
			return fmt.Errorf("assertions[%d]: trait is required for trait_count", index)
		}
	case AssertStoredCount:
		if a.Trait == "" && a.Flag == "" {
			return fmt.Errorf("assertions[%d]: trait or flag is required for stored_count", index)
		}
	case AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
