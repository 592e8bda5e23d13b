// Package store provides SQLite-backed storage for extraction results.
//
// The store keeps three tables:
//   - runs: one row per extraction run and the grammars it applied
//   - records: source text, content addressed by field and text
//   - traits: every trait a run found, with its canonical JSON body
//
// Writes are idempotent. Record IDs and trait IDs are content hashes (see
// ir.RecordID and ir.TraitID), and every insert uses ON CONFLICT DO
// NOTHING, so re-running an extraction over the same input changes
// nothing.
//
// Ordering uses the seq column, a logical counter handed out by the
// extractor, never wall-clock time. Every read ends with
// ORDER BY seq ASC, ... id COLLATE BINARY ASC so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: traits must reference a stored run and record
package store
