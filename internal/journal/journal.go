// Package journal persists run history in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reelsort/internal/services"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    dry_run INTEGER NOT NULL DEFAULT 0,
    units_found INTEGER NOT NULL DEFAULT 0,
    transferred INTEGER NOT NULL DEFAULT 0,
    kept INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transfers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    year INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL,
    destination TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transfers_run ON transfers(run_id);
`

// Run is one organize invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	DryRun      bool
	UnitsFound  int
	Transferred int
	Kept        int
	Skipped     int
	Failed      int
}

// Summary carries a finished run's counters.
type Summary struct {
	UnitsFound  int
	Transferred int
	Kept        int
	Skipped     int
	Failed      int
}

// Transfer is one recorded unit outcome.
type Transfer struct {
	Title       string
	Year        int
	Source      string
	Destination string
	Action      string
	Detail      string
	Status      string
	Error       string
}

// Store wraps the journal database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open",
			fmt.Sprintf("open database %q", path), err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, services.Wrap(services.ErrConfiguration, "journal", "open", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", "apply schema", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(ctx context.Context, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dry_run) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), boolToInt(dryRun))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "journal", "start run", "", err)
	}
	return id, nil
}

// FinishRun stamps the run with its end time and counters.
func (s *Store) FinishRun(ctx context.Context, id string, summary Summary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, units_found = ?, transferred = ?, kept = ?, skipped = ?, failed = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		summary.UnitsFound, summary.Transferred, summary.Kept, summary.Skipped, summary.Failed,
		id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "journal", "finish run", id, err)
	}
	return nil
}

// RecordTransfer appends one unit outcome to the run.
func (s *Store) RecordTransfer(ctx context.Context, runID string, rec Transfer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (run_id, title, year, source, destination, action, detail, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Title, rec.Year, rec.Source, rec.Destination,
		rec.Action, rec.Detail, rec.Status, rec.Error,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrTransient, "journal", "record transfer", rec.Title, err)
	}
	return nil
}

// RecentRuns lists the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), dry_run,
		        units_found, transferred, kept, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "journal", "list runs", "", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var dryRun int
		if err := rows.Scan(&run.ID, &started, &finished, &dryRun,
			&run.UnitsFound, &run.Transferred, &run.Kept, &run.Skipped, &run.Failed); err != nil {
			return nil, services.Wrap(services.ErrTransient, "journal", "scan run", "", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		run.DryRun = dryRun != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunTransfers lists the transfers of one run in insertion order.
func (s *Store) RunTransfers(ctx context.Context, runID string) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, year, source, destination, action, detail, status, error
		 FROM transfers WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "journal", "list transfers", runID, err)
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var rec Transfer
		if err := rows.Scan(&rec.Title, &rec.Year, &rec.Source, &rec.Destination,
			&rec.Action, &rec.Detail, &rec.Status, &rec.Error); err != nil {
			return nil, services.Wrap(services.ErrTransient, "journal", "scan transfer", runID, err)
		}
		transfers = append(transfers, rec)
	}
	return transfers, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
