package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/engine"
)

func runReplayCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeReplay(t *testing.T, out string) ReplayResult {
	t.Helper()
	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, err := runReplayCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	out, err := runReplayCommand(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestReplayDeterministic(t *testing.T) {
	db := seedDB(t)

	out, err := runReplayCommand(t, "json", "--db", db)
	require.NoError(t, err)

	res := decodeReplay(t, out)
	assert.True(t, res.AllDeterministic)
	assert.Equal(t, 2, res.TotalRuns)
	require.Len(t, res.Runs, 2)
	for _, r := range res.Runs {
		assert.True(t, r.Deterministic, r.RunID)
		assert.Equal(t, 4, r.Records, "records without traits are replayed too")
		assert.Equal(t, 3, r.StoredTraits)
		assert.Equal(t, 3, r.Replayed)
		assert.Empty(t, r.Mismatched)
	}
}

func TestReplaySingleRunText(t *testing.T) {
	db := seedDB(t)

	out, err := runReplayCommand(t, "text", "--db", db, "--run", "q-2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ q-2 ([body_mass sex])")
	assert.Contains(t, out, "4 record(s), 3 stored trait(s), 3 replayed")
	assert.Contains(t, out, "✓ 1 run(s) reproduced exactly")
}

func TestReplayUnknownRun(t *testing.T) {
	db := seedDB(t)
	_, err := runReplayCommand(t, "text", "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayDetectsTampering(t *testing.T) {
	db := seedDB(t)

	conn, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = conn.ExecContext(context.Background(),
		`DELETE FROM traits WHERE run_id = ? AND trait = ?`, "q-1", "sex")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	out, err := runReplayCommand(t, "json", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	res := decodeReplay(t, out)
	assert.False(t, res.AllDeterministic)
	require.Len(t, res.Runs, 2)
	assert.False(t, res.Runs[0].Deterministic)
	assert.Len(t, res.Runs[0].Mismatched, 1)
	assert.True(t, res.Runs[1].Deterministic)
}

func TestReplayGrammarFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "traits.db")
	grammar := filepath.Join(dir, "tail.cue")
	require.NoError(t, os.WriteFile(grammar, []byte(tailGrammar), 0644))
	input := writeInput(t, "notes.txt", "tail 52 mm\nweight 2 kg\n")

	_, err := runExtractCommand(t, &engine.SequentialRunIDs{Prefix: "f"},
		"--db", db, "-g", "body_mass", "--file", grammar, input)
	require.NoError(t, err)

	_, err = runReplayCommand(t, "text", "--db", db)
	require.Error(t, err, "tail_length is not built in")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run f-1")

	out, err := runReplayCommand(t, "json", "--db", db, "--file", grammar)
	require.NoError(t, err)
	res := decodeReplay(t, out)
	require.Len(t, res.Runs, 1)
	assert.Equal(t, []string{"body_mass", "tail_length"}, res.Runs[0].Grammars)
	assert.True(t, res.AllDeterministic)
}
