// Package bench runs scripted question sets against a backend and persists
// per-run timing and correctness, plus an audit trail of tool executions.
package bench

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dynafunc/internal/domain"
)

// Run is one benchmark execution over a question set.
type Run struct {
	ID        string
	Provider  string
	Model     string
	Questions int
	Correct   int
	StartedAt time.Time
	ElapsedMs int64
}

// Result is one answered question inside a run.
type Result struct {
	RunID     string
	Question  string
	Expected  string
	Answer    string
	Correct   bool
	ElapsedMs int64
	Err       string
}

// SQLiteStore persists benchmark runs and tool audit rows.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS benchmark_runs (
		id          TEXT PRIMARY KEY,
		provider    TEXT NOT NULL,
		model       TEXT,
		questions   INTEGER NOT NULL,
		correct     INTEGER NOT NULL,
		elapsed_ms  INTEGER NOT NULL,
		started_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS benchmark_results (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES benchmark_runs(id) ON DELETE CASCADE,
		question    TEXT NOT NULL,
		expected    TEXT,
		answer      TEXT,
		correct     INTEGER NOT NULL,
		elapsed_ms  INTEGER NOT NULL,
		error       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON benchmark_results(run_id);

	CREATE TABLE IF NOT EXISTS tool_audit (
		id          TEXT PRIMARY KEY,
		tool_name   TEXT NOT NULL,
		arguments   TEXT,
		ok          INTEGER NOT NULL,
		error       TEXT,
		elapsed_ms  INTEGER NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_time ON tool_audit(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run header and its per-question results in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, results []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO benchmark_runs (id, provider, model, questions, correct, elapsed_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.Model, run.Questions, run.Correct, run.ElapsedMs, run.StartedAt,
	); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO benchmark_results (run_id, question, expected, answer, correct, elapsed_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Question, r.Expected, r.Answer, r.Correct, r.ElapsedMs, r.Err,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, model, questions, correct, elapsed_ms, started_at
		 FROM benchmark_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Questions, &r.Correct, &r.ElapsedMs, &r.StartedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Results returns the per-question rows of one run.
func (s *SQLiteStore) Results(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, question, expected, answer, correct, elapsed_ms, error
		 FROM benchmark_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.RunID, &r.Question, &r.Expected, &r.Answer, &r.Correct, &r.ElapsedMs, &r.Err); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RecordToolCall implements domain.ToolRecorder. Write failures are logged
// and dropped so auditing never breaks an execution path.
func (s *SQLiteStore) RecordToolCall(ctx context.Context, rec domain.ToolCallRecord) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_audit (id, tool_name, arguments, ok, error, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tool, rec.Arguments, rec.OK, rec.Error, rec.ElapsedMs,
	)
	if err != nil && s.logger != nil {
		s.logger.Warn("tool audit write failed", "tool", rec.Tool, "error", err)
	}
}

// AuditTrail returns recent tool audit rows, newest first.
func (s *SQLiteStore) AuditTrail(ctx context.Context, limit int) ([]domain.ToolCallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool_name, arguments, ok, error, elapsed_ms
		 FROM tool_audit ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.ToolCallRecord
	for rows.Next() {
		var r domain.ToolCallRecord
		if err := rows.Scan(&r.ID, &r.Tool, &r.Arguments, &r.OK, &r.Error, &r.ElapsedMs); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
