// Package harness provides conformance testing for traiter grammars.
//
// The harness compiles the grammars a scenario names, parses each case's
// text, checks the traits against the case's expectations, stores the run
// in a fresh in-memory SQLite database and evaluates assertions over it.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: body_mass_basic
//	description: "What this scenario validates"
//	grammars: [body_mass]
//	files:
//	  - grammars/ear_length.cue
//	cases:
//	  - text: "weight 20 kg"
//	    expect:
//	      - trait: body_mass
//	        start: 0
//	        end: 12
//	        values: [20000]
//	  - text: "no weight here"
//	    count: 0
//	assertions:
//	  - type: trait_count
//	    trait: body_mass
//	    count: 1
//	  - type: stored_count
//	    flag: is_range
//	    count: 0
//
// grammars names built-in grammars; files lists CUE grammar files resolved
// relative to the scenario file.
//
// # Case Expectations
//
// Each expected trait must match one parsed trait (subset match: only the
// fields given are compared). count, when present, requires exactly that
// many traits.
//
// # Assertion Types
//
//   - trait_count: the number of traits with the given name across all cases
//   - stored_count: the number of stored traits matching trait and/or flag,
//     read back through the query package
//   - deterministic: every case parses to identical canonical JSON twice
//
// # Deterministic Testing
//
// Runs use a fixed run ID (from scenario.run_id or "test-run-default") and
// sequence numbers starting at 1, so the golden snapshot of a scenario is
// byte-identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/body_mass.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
