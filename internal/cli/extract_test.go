package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/store"
)

const notes = "weight 2 kg\nsex: female\n\nweight 10-12 g\nno traits in this one\n"

// runExtractCommand runs extract with sequential run IDs and returns the
// decoded JSON result.
func runExtractCommand(t *testing.T, ids engine.RunIDs, args ...string) (ExtractResult, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := &ExtractOptions{RootOptions: &RootOptions{Format: "json"}, RunIDs: ids}
	cmd := newExtractCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		return ExtractResult{}, err
	}

	var resp struct {
		Status string        `json:"status"`
		Data   ExtractResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data, nil
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestExtractLines(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "notes.txt", notes)
	ids := &engine.SequentialRunIDs{Prefix: "run"}

	res, err := runExtractCommand(t, ids, "--db", db, "-g", "body_mass,sex", "--workers", "2", input)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"body_mass", "sex"}, res.Grammars)
	assert.Equal(t, 4, res.Records, "blank line skipped")
	assert.Equal(t, 3, res.Traits)
	assert.Equal(t, int64(2), res.FirstSeq, "the run itself takes seq 1")
	assert.Equal(t, int64(5), res.LastSeq)

	st := openStore(t, db)
	ctx := context.Background()

	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
	assert.Equal(t, int64(1), run.Seq)

	recs, err := st.ReadRunRecords(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "line-1", recs[0].SourceID)
	assert.Equal(t, "line-5", recs[3].SourceID)
	assert.Equal(t, "text", recs[0].Field)

	stored, err := st.ReadTraits(ctx, "run-1")
	require.NoError(t, err)
	names := make([]string, len(stored))
	for i, s := range stored {
		names[i] = s.Trait.Name
	}
	assert.Equal(t, []string{"body_mass", "sex", "body_mass"}, names, "stored in extraction order")
}

func TestExtractSequenceContinuesAcrossRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "notes.txt", notes)
	ids := &engine.SequentialRunIDs{Prefix: "run"}

	first, err := runExtractCommand(t, ids, "--db", db, "-g", "body_mass", input)
	require.NoError(t, err)
	second, err := runExtractCommand(t, ids, "--db", db, "-g", "body_mass", input)
	require.NoError(t, err)

	assert.Equal(t, "run-2", second.RunID)
	assert.Equal(t, first.LastSeq+2, second.FirstSeq, "second run's own seq sits between")
	assert.Equal(t, first.Traits, second.Traits)

	st := openStore(t, db)
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}

func TestExtractCSV(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "records.csv",
		"occurrenceid,remarks,dynamicproperties\n"+
			"occ-1,sex: male,weight 2 kg\n"+
			"occ-2,,\n")

	res, err := runExtractCommand(t, &engine.SequentialRunIDs{Prefix: "csv"},
		"--db", db, "-g", "body_mass,sex",
		"--columns", "remarks,dynamicproperties", "--id-column", "occurrenceid", input)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, res.Traits)

	st := openStore(t, db)
	recs, err := st.ReadRunRecords(context.Background(), "csv-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "occ-1", recs[0].SourceID)
	assert.Equal(t, "remarks", recs[0].Field)
	assert.Equal(t, "dynamicproperties", recs[1].Field)
}

func TestExtractGzip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "traits.db")
	input := writeCompressed(t, dir, "notes.txt.gz", "gzip", []byte(notes))

	res, err := runExtractCommand(t, &engine.SequentialRunIDs{Prefix: "gz"}, "--db", db, "-g", "body_mass", input)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Records)
	assert.Equal(t, 2, res.Traits)
}

func TestExtractTextOutput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "notes.txt", notes)

	out, err := execute(t, "extract", "--db", db, "-g", "sex", input)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Run ")
	assert.Contains(t, out, "4 record(s), 1 trait(s)")
	assert.Contains(t, out, "seq 2-5")
}

func TestExtractMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, "extract", "notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestExtractMissingInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	_, err := runExtractCommand(t, nil, "--db", db, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInput)
}

func TestExtractBadInputFormat(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "notes.txt", notes)
	_, err := runExtractCommand(t, nil, "--db", db, "--input-format", "xml", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown input format "xml"`)
}

func TestExtractBadCSVHeader(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traits.db")
	input := writeInput(t, "records.csv", "id,remarks\na,weight 2 kg\n")
	_, err := runExtractCommand(t, nil, "--db", db, input)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInput)
}
