// Package ledger keeps a sqlite audit trail of batch runs: one row per run
// and one row per filed photo with its classification provenance. The ledger
// is informational only; nothing in the pipeline reads it back.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/menta2k/mls-photo-processor/pkg/batch"
)

// timeLayout is fixed width so lexicographic order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Ledger wraps the sqlite handle.
type Ledger struct {
	*sql.DB
}

// Open opens (or creates) the ledger database at path and ensures the schema.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			folder      TEXT,
			account_no  TEXT,
			parcel_no   TEXT,
			processed   BIGINT,
			errors      BIGINT,
			skipped     BIGINT,
			started_at  TEXT,
			finished_at TEXT
		);
		CREATE TABLE IF NOT EXISTS classifications (
			run_id              TEXT,
			original_file       TEXT,
			saved_path          TEXT,
			room_type           TEXT,
			decided_by          TEXT,
			matched_rule        TEXT,
			fallback_confidence DOUBLE,
			inference_note      TEXT,
			created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &Ledger{db}, nil
}

// RecordRun stores the run summary and every per-photo result in one
// transaction.
func (l *Ledger) RecordRun(report *batch.Report) error {
	tx, err := l.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (
			run_id, folder, account_no, parcel_no,
			processed, errors, skipped, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Folder, report.AccountNo, report.ParcelNo,
		report.ProcessedCount, len(report.Errors), len(report.SkippedFiles),
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO classifications (
			run_id, original_file, saved_path, room_type,
			decided_by, matched_rule, fallback_confidence, inference_note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range report.Results {
		_, err := stmt.Exec(
			report.RunID, res.OriginalFile, res.SavedPath,
			string(res.Classification.Label),
			string(res.Classification.DecidedBy),
			res.Classification.MatchedRule,
			res.Classification.FallbackConfidence,
			res.Classification.InferenceNote,
		)
		if err != nil {
			return fmt.Errorf("failed to insert classification: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID      string
	Folder     string
	AccountNo  string
	ParcelNo   string
	Processed  int
	Errors     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runs returns the most recent runs, newest first.
func (l *Ledger) Runs() ([]RunSummary, error) {
	rows, err := l.Query(
		`SELECT run_id, folder, account_no, parcel_no,
			processed, errors, skipped, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt, finishedAt string
		if err := rows.Scan(
			&r.RunID, &r.Folder, &r.AccountNo, &r.ParcelNo,
			&r.Processed, &r.Errors, &r.Skipped, &startedAt, &finishedAt,
		); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// ClassificationRow is one row of the classifications table.
type ClassificationRow struct {
	RunID              string
	OriginalFile       string
	SavedPath          string
	RoomType           string
	DecidedBy          string
	MatchedRule        string
	FallbackConfidence float64
	InferenceNote      string
}

// Classifications returns every filed photo of a run in name order.
func (l *Ledger) Classifications(runID string) ([]ClassificationRow, error) {
	rows, err := l.Query(
		`SELECT run_id, original_file, saved_path, room_type,
			decided_by, matched_rule, fallback_confidence, inference_note
		 FROM classifications WHERE run_id = ? ORDER BY original_file`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClassificationRow
	for rows.Next() {
		var c ClassificationRow
		if err := rows.Scan(
			&c.RunID, &c.OriginalFile, &c.SavedPath, &c.RoomType,
			&c.DecidedBy, &c.MatchedRule, &c.FallbackConfidence, &c.InferenceNote,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
