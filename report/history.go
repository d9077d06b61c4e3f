package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	_ "github.com/mattn/go-sqlite3"
)

// timestampFormat has a fixed width so that stored times sort lexically.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

// History is a SQLite store of past runs: one row per run and one per case.
type History struct {
	db *sql.DB
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Target    string
	Project   string
	Total     int
	Passed    int
	Failed    int
	Errored   int
	Duration  time.Duration
}

// CaseRecord is one row of the cases table.
type CaseRecord struct {
	Section  string
	Name     string
	Outcome  framework.Outcome
	Duration time.Duration
	Message  string
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	h := &History{db: db}
	if err := h.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

func (h *History) createTables() error {
	_, err := h.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		target TEXT NOT NULL,
		project TEXT NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		errored INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cases (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		section TEXT NOT NULL,
		name TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK (outcome IN ('passed', 'failed', 'errored')),
		duration_ms INTEGER NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_cases_name ON cases(name);
	`)
	return err
}

// Record stores a completed run in a single transaction.
func (h *History) Record(report framework.RunReport, target, project string) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	passed, failed, errored := report.Counts()
	if _, err := tx.Exec(`
	INSERT INTO runs (run_id, started_at, target, project, total, passed, failed, errored, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC().Format(timestampFormat), target, project,
		len(report.Tests), passed, failed, errored, report.TotalDuration().Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO cases (run_id, seq, section, name, outcome, duration_ms, message)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range report.Tests {
		if _, err := stmt.Exec(report.RunID, i, r.Section, r.Name, outcomeName(r.Outcome),
			r.Duration.Milliseconds(), r.Message); err != nil {
			return fmt.Errorf("failed to record case %s: %w", r.Name, err)
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first.
func (h *History) Runs(limit int) ([]RunSummary, error) {
	rows, err := h.db.Query(`
	SELECT run_id, started_at, target, project, total, passed, failed, errored, duration_ms
	FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []RunSummary
	for rows.Next() {
		var (
			s          RunSummary
			startedAt  string
			durationMs int64
		)
		if err := rows.Scan(&s.RunID, &startedAt, &s.Target, &s.Project,
			&s.Total, &s.Passed, &s.Failed, &s.Errored, &durationMs); err != nil {
			return nil, err
		}
		if s.StartedAt, err = time.Parse(timestampFormat, startedAt); err != nil {
			return nil, fmt.Errorf("run %s has an invalid start time: %w", s.RunID, err)
		}
		s.Duration = time.Duration(durationMs) * time.Millisecond
		ret = append(ret, s)
	}
	return ret, rows.Err()
}

// Cases returns the verdicts of one run in execution order.
func (h *History) Cases(runID string) ([]CaseRecord, error) {
	rows, err := h.db.Query(`
	SELECT section, name, outcome, duration_ms, message
	FROM cases WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []CaseRecord
	for rows.Next() {
		var (
			c          CaseRecord
			outcome    string
			durationMs int64
		)
		if err := rows.Scan(&c.Section, &c.Name, &outcome, &durationMs, &c.Message); err != nil {
			return nil, err
		}
		c.Outcome = parseOutcome(outcome)
		c.Duration = time.Duration(durationMs) * time.Millisecond
		ret = append(ret, c)
	}
	return ret, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
