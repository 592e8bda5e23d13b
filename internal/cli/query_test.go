package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/engine"
)

// seedDB extracts notes into a fresh database twice, as runs q-1 and q-2.
func seedDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "notes.txt", notes)
	ids := &engine.SequentialRunIDs{Prefix: "q"}
	for range 2 {
		_, err := runExtractCommand(t, ids, "--db", db, "-g", "body_mass,sex", input)
		require.NoError(t, err)
	}
	return db
}

func runQueryJSON(t *testing.T, args ...string) ([]QueryRow, error) {
	t.Helper()
	out, err := execute(t, append([]string{"query", "--format", "json"}, args...)...)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Status string     `json:"status"`
		Data   []QueryRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data, nil
}

func TestQueryFilters(t *testing.T) {
	db := seedDB(t)

	tests := []struct {
		name  string
		args  []string
		count int
	}{
		{"all", nil, 6},
		{"by trait", []string{"--trait", "body_mass"}, 4},
		{"by run", []string{"--run", "q-1"}, 3},
		{"latest", []string{"--run", "latest", "--trait", "sex"}, 1},
		{"min", []string{"--trait", "body_mass", "--min", "100"}, 2},
		{"max", []string{"--trait", "body_mass", "--max", "100"}, 2},
		{"min zero still filters", []string{"--min", "0"}, 4},
		{"flag", []string{"--flag", "is_range"}, 2},
		{"limit", []string{"--limit", "1"}, 1},
		{"no match", []string{"--trait", "tail_length"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := runQueryJSON(t, append([]string{"--db", db}, tt.args...)...)
			require.NoError(t, err)
			assert.Len(t, rows, tt.count)
		})
	}
}

func TestQueryOrderAndRecord(t *testing.T) {
	db := seedDB(t)

	rows, err := runQueryJSON(t, "--db", db, "--run", "latest")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Seq, rows[i].Seq)
	}
	for _, r := range rows {
		assert.Equal(t, "q-2", r.RunID)
	}

	byRecord, err := runQueryJSON(t, "--db", db, "--record", rows[0].RecordID)
	require.NoError(t, err)
	assert.Len(t, byRecord, 2, "same record in both runs")
	assert.Equal(t, rows[0].ID, byRecord[1].ID, "content IDs repeat across runs")
}

func TestQueryText(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "query", "--db", db, "--trait", "sex")
	require.NoError(t, err)
	assert.Contains(t, out, "sex [")
	assert.Contains(t, out, " female")
	assert.Contains(t, out, "2 trait(s)")

	out, err = execute(t, "query", "--db", db, "--trait", "wingspan")
	require.NoError(t, err)
	assert.Equal(t, "No traits found.\n", out)
}

func TestQueryLatestEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	out, err := execute(t, "query", "--db", db, "--run", "latest")
	require.NoError(t, err)
	assert.Equal(t, "No runs in database.\n", out)
}

func TestQueryInvalidFlagName(t *testing.T) {
	db := seedDB(t)
	buf := &bytes.Buffer{}
	cmd := NewQueryCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--flag", "is%range"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQuery, resp.Error.Code)
}

func TestQueryInvertedRange(t *testing.T) {
	db := seedDB(t)
	_, err := execute(t, "query", "--db", db, "--min", "10", "--max", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min 10 greater than max 1")
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(&QueryOptions{}, "", false, false)
	assert.Nil(t, q.Filter)

	q = buildQuery(&QueryOptions{Trait: "sex"}, "", false, false)
	assert.NotNil(t, q.Filter)

	q = buildQuery(&QueryOptions{Trait: "sex", Flags: []string{"uncertain"}, Limit: 3}, "r", false, false)
	assert.Equal(t, 3, q.Limit)
}
