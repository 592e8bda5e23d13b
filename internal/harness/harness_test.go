package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/ear_length.yaml")
	require.NoError(t, err)

	assert.Equal(t, "ear_length_file", s.Name)
	assert.Equal(t, "run-ear", s.RunID)
	require.Len(t, s.Files, 1)
	assert.Equal(t, filepath.Join("testdata", "grammars", "ear_length.cue"), s.Files[0],
		"grammar files resolve against the scenario directory")
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "dynamicproperties", s.Cases[0].Field)
}

func TestLoadScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\ngrammars: [sex]\ncases: [{text: a}]\nassertion: []\n",
			want: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: "description: y\ngrammars: [sex]\ncases: [{text: a}]\n",
			want: "name is required",
		},
		{
			name: "no grammars",
			yaml: "name: x\ndescription: y\ncases: [{text: a}]\n",
			want: "grammars or files is required",
		},
		{
			name: "unknown grammar",
			yaml: "name: x\ndescription: y\ngrammars: [tail]\ncases: [{text: a}]\n",
			want: `unknown grammar "tail"`,
		},
		{
			name: "no cases",
			yaml: "name: x\ndescription: y\ngrammars: [sex]\n",
			want: "cases list is required",
		},
		{
			name: "missing grammar file",
			yaml: "name: x\ndescription: y\nfiles: [nope.cue]\ncases: [{text: a}]\n",
			want: "grammar file not found",
		},
		{
			name: "expect without trait",
			yaml: "name: x\ndescription: y\ngrammars: [sex]\ncases: [{text: a, expect: [{label: male}]}]\n",
			want: "cases[0].expect[0]: trait is required",
		},
		{
			name: "bad assertion",
			yaml: "name: x\ndescription: y\ngrammars: [sex]\ncases: [{text: a}]\nassertions: [{type: final_state}]\n",
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "stored_count without filter",
			yaml: "name: x\ndescription: y\ngrammars: [sex]\ncases: [{text: a}]\nassertions: [{type: stored_count}]\n",
			want: "trait or flag is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_BodyMass(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/body_mass.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "test-run-default", result.RunID)

	require.Len(t, result.Cases, 3)
	for i, c := range result.Cases {
		assert.Equal(t, s.Cases[i].Text, c.Text, "cases keep scenario order")
		assert.Equal(t, int64(i+2), c.Seq, "seq 1 is the run")
	}
}

func TestRun_GrammarFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/ear_length.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "run-ear", result.RunID)
	assert.Contains(t, result.Cases[0].Tokens, "ear_length")
}

func TestRun_ReportsFailures(t *testing.T) {
	two := 2
	start := 3
	s := &Scenario{
		Name:        "failing",
		Description: "expectations that do not hold",
		Grammars:    []string{"sex"},
		Cases: []Case{
			{Text: "sex: female", Count: &two},
			{Text: "male", Expect: []ExpectTrait{{Trait: "sex", Start: &start}}},
		},
		Assertions: []Assertion{
			{Type: AssertTraitCount, Trait: "sex", Count: 5},
			{Type: AssertStoredCount, Flag: "uncertain", Count: 1},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected 2 trait(s), got 1")
	assert.Contains(t, result.Errors[1], "expected sex")
	assert.Contains(t, result.Errors[2], "trait_count")
	assert.Contains(t, result.Errors[3], "stored_count")
}

func TestRun_UnknownGrammar(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Grammars: []string{"tail"}, Cases: []Case{{Text: "a"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tail")
}

func TestRunWithGolden_Sex(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/sex_golden.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_Sex -update
	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/body_mass.yaml")
	require.NoError(t, err)

	r1, err := Run(s)
	require.NoError(t, err)
	r2, err := Run(s)
	require.NoError(t, err)

	b1, err := MarshalSnapshot(s.Name, r1)
	require.NoError(t, err)
	b2, err := MarshalSnapshot(s.Name, r2)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}
