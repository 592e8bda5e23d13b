package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/traiter/internal/ir"
)

// Run is one extraction run.
type Run struct {
	ID            string
	Grammars      []string
	EngineVersion string
	Seq           int64
}

// Record is one stored source text. ID is the content address from
// ir.RecordID; SourceID is the caller's identifier for the row it came from.
type Record struct {
	ID       string
	SourceID string
	Field    string
	Text     string
	Seq      int64
}

// StoredTrait is a trait together with where it was found.
type StoredTrait struct {
	ID       string
	RunID    string
	RecordID string
	Seq      int64
	Trait    ir.Trait
}

// WriteRun inserts a run. Duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, grammars, engine_version, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, marshalGrammars(run.Grammars), run.EngineVersion, run.Seq)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteRecord inserts a record. When rec.ID is empty it is computed from
// the field and text. Returns the record ID.
//
// Records are content addressed, so writing the same field and text twice
// keeps the first row.
func (s *Store) WriteRecord(ctx context.Context, rec Record) (string, error) {
	if err := insertRecord(ctx, s.db, &rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// WriteExtraction stores a record and the traits a run found in it in one
// transaction. Trait IDs are content addressed, so replaying an extraction
// is a no-op.
func (s *Store) WriteExtraction(ctx context.Context, runID string, rec Record, traits []ir.Trait) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write extraction: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = insertRecord(ctx, tx, &rec); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO run_records (run_id, record_id, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, record_id) DO NOTHING
	`, runID, rec.ID, rec.Seq); err != nil {
		return fmt.Errorf("write extraction: link record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO traits
		(id, run_id, record_id, trait, start_offset, end_offset, value, units, flags, body, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write extraction: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range traits {
		id, idErr := ir.TraitID(rec.ID, t)
		if idErr != nil {
			return fmt.Errorf("write extraction: %w", idErr)
		}
		body, mErr := marshalTrait(t)
		if mErr != nil {
			return fmt.Errorf("write extraction: %w", mErr)
		}
		var value sql.NullFloat64
		if len(t.Values) > 0 {
			value = sql.NullFloat64{Float64: t.Values[0], Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			id,
			runID,
			rec.ID,
			t.Name,
			t.Start,
			t.End,
			value,
			strings.Join(t.Units, ","),
			marshalFlags(t.Flags),
			body,
			rec.Seq,
		); err != nil {
			return fmt.Errorf("write trait %s: %w", t.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write extraction: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, rec *Record) error {
	if rec.ID == "" {
		id, err := ir.RecordID(rec.Field, rec.Text)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		rec.ID = id
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (id, source_id, field, text, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.SourceID, rec.Field, rec.Text, rec.Seq)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
