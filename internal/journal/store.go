package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the move audit log and per-run outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply journal schema: %w", err)
	}
	return nil
}

// RecordMove appends a move/copy audit row. Rows are appended in completion
// order; callers treat failures as non-fatal.
func (s *Store) RecordMove(ctx context.Context, operation, source, destination string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO moves (operation, source, destination, recorded_at) VALUES (?, ?, ?, ?)`,
		operation,
		source,
		destination,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// BeginRun inserts a run row and returns its identifier.
func (s *Store) BeginRun(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (started_at) VALUES (?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// OutcomeRecord is one terminal item outcome within a run.
type OutcomeRecord struct {
	ItemID       string
	Class        string
	Kind         string
	Stage        string
	Status       string
	OutputPath   string
	ErrorKind    string
	ErrorMessage string
}

// RecordOutcome appends a terminal item outcome to a run.
func (s *Store) RecordOutcome(ctx context.Context, runID int64, rec OutcomeRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO outcomes (
            run_id, item_id, class, kind, stage, status,
            output_path, error_kind, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		rec.ItemID,
		rec.Class,
		rec.Kind,
		rec.Stage,
		rec.Status,
		rec.OutputPath,
		rec.ErrorKind,
		rec.ErrorMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// CompleteRun stamps the run with its completion time and final counts.
func (s *Store) CompleteRun(ctx context.Context, runID int64, succeeded, failed int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET completed_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		succeeded,
		failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// RunRow summarizes one recorded run.
type RunRow struct {
	ID          int64
	StartedAt   string
	CompletedAt string
	Succeeded   int
	Failed      int
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, COALESCE(completed_at, ''), COALESCE(succeeded, 0), COALESCE(failed, 0)
         FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var row RunRow
		if err := rows.Scan(&row.ID, &row.StartedAt, &row.CompletedAt, &row.Succeeded, &row.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// FailedOutcomes returns the failed outcomes of a run in recorded order.
func (s *Store) FailedOutcomes(ctx context.Context, runID int64) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT item_id, class, kind, stage, status, output_path, error_kind, error_message
         FROM outcomes WHERE run_id = ? AND status = 'failed' ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var result []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		if err := rows.Scan(
			&rec.ItemID, &rec.Class, &rec.Kind, &rec.Stage,
			&rec.Status, &rec.OutputPath, &rec.ErrorKind, &rec.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// MoveRow is one audit entry from the move log.
type MoveRow struct {
	ID          int64
	Operation   string
	Source      string
	Destination string
	RecordedAt  string
}

// RecentMoves returns up to limit audit entries, newest first.
func (s *Store) RecentMoves(ctx context.Context, limit int) ([]MoveRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, operation, source, destination, recorded_at
         FROM moves ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var result []MoveRow
	for rows.Next() {
		var row MoveRow
		if err := rows.Scan(&row.ID, &row.Operation, &row.Source, &row.Destination, &row.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
