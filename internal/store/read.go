package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TraitColumns is the column list ScanTraits expects, in order. Query
// compilers select exactly these columns.
const TraitColumns = "id, run_id, record_id, seq, body"

// ErrNotFound is returned when a single-row read finds nothing.
var ErrNotFound = errors.New("not found")

// ReadRun returns the run with the given ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, grammars, engine_version, seq
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns every run ordered by seq.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grammars, engine_version, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecord returns the record with the given ID, or ErrNotFound.
func (s *Store) ReadRecord(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, field, text, seq
		FROM records
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.SourceID, &rec.Field, &rec.Text, &rec.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}
	return rec, nil
}

// ReadRunRecords returns the records a run read, in the order it read
// them. Seq is the run's seq for the record, which differs from the stored
// record's seq when an earlier run saw the same text first.
//
// Returns an empty slice (not nil) if the run read nothing.
func (s *Store) ReadRunRecords(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source_id, r.field, r.text, rr.seq
		FROM run_records rr
		JOIN records r ON r.id = rr.record_id
		WHERE rr.run_id = ?
		ORDER BY rr.seq ASC, r.id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SourceID, &rec.Field, &rec.Text, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return recs, nil
}

// ReadTraits returns every trait a run stored, in extraction order.
// Results are ordered deterministically: seq, then offset, then ID.
//
// Returns an empty slice (not nil) if the run stored nothing.
func (s *Store) ReadTraits(ctx context.Context, runID string) ([]StoredTrait, error) {
	return s.QueryTraits(ctx, `
		SELECT `+TraitColumns+`
		FROM traits
		WHERE run_id = ?
		ORDER BY seq ASC, start_offset ASC, id COLLATE BINARY ASC
	`, runID)
}

// QueryTraits runs a compiled trait query. query must select
// TraitColumns from traits.
func (s *Store) QueryTraits(ctx context.Context, query string, args ...any) ([]StoredTrait, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query traits: %w", err)
	}
	return ScanTraits(rows)
}

// MaxSeq returns the highest seq used by any run or record, or 0 for an
// empty store. New runs continue numbering after it.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM runs
			UNION ALL
			SELECT seq FROM records
			UNION ALL
			SELECT seq FROM run_records
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

// ScanTraits reads TraitColumns rows and closes rows.
func ScanTraits(rows *sql.Rows) ([]StoredTrait, error) {
	defer rows.Close()

	traits := []StoredTrait{}
	for rows.Next() {
		var st StoredTrait
		var body string
		if err := rows.Scan(&st.ID, &st.RunID, &st.RecordID, &st.Seq, &body); err != nil {
			return nil, fmt.Errorf("scan trait: %w", err)
		}
		t, err := unmarshalTrait(body)
		if err != nil {
			return nil, fmt.Errorf("trait %s: %w", st.ID, err)
		}
		st.Trait = t
		traits = append(traits, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traits: %w", err)
	}
	return traits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var grammars string
	if err := row.Scan(&run.ID, &grammars, &run.EngineVersion, &run.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Grammars = unmarshalGrammars(grammars)
	return run, nil
}
