// Package storage keeps the run ledger, an embedded sqlite database recording
// every ingestion run and its per-entity outcomes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	entities INTEGER NOT NULL,
	pages INTEGER NOT NULL,
	rows_added INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	entity_id TEXT NOT NULL,
	category TEXT NOT NULL,
	state TEXT NOT NULL,
	pages INTEGER NOT NULL,
	rows_added INTEGER NOT NULL,
	error TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_entities_run ON run_entities(run_id);
`

// Ledger is a sqlite-backed ports.RunLedger.
type Ledger struct {
	db *sql.DB
}

var _ ports.RunLedger = (*Ledger)(nil)

// Open creates or reopens the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
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

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordRun inserts a run row and returns its ledger id.
func (l *Ledger) RecordRun(ctx context.Context, summary domain.RunSummary) (int64, error) {
	query, args, err := sq.Insert("runs").
		Columns("started_at", "finished_at", "entities", "pages", "rows_added").
		Values(
			summary.StartedAt.UTC().Format(time.RFC3339),
			summary.FinishedAt.UTC().Format(time.RFC3339),
			summary.Entities,
			summary.Pages,
			summary.RowsAdded,
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build run insert: %w", err)
	}

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run insert id: %w", err)
	}
	return id, nil
}

// RecordEntity inserts one per-entity outcome under a recorded run.
func (l *Ledger) RecordEntity(ctx context.Context, runID int64, outcome domain.EntityOutcome) error {
	query, args, err := sq.Insert("run_entities").
		Columns("run_id", "entity_id", "category", "state", "pages", "rows_added", "error").
		Values(runID, outcome.EntityID, outcome.Category, string(outcome.State), outcome.Pages, outcome.RowsAdded, outcome.Err).
		ToSql()
	if err != nil {
		return fmt.Errorf("build entity insert: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run entity: %w", err)
	}
	return nil
}

// RunRecord is one ledger row as read back for inspection.
type RunRecord struct {
	ID        int64
	Summary   domain.RunSummary
	StartedAt string
}

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query, args, err := sq.Select("id", "started_at", "finished_at", "entities", "pages", "rows_added").
		From("runs").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent runs query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec                   RunRecord
			startedAt, finishedAt string
		)
		if err := rows.Scan(&rec.ID, &startedAt, &finishedAt,
			&rec.Summary.Entities, &rec.Summary.Pages, &rec.Summary.RowsAdded); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		rec.StartedAt = startedAt
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			rec.Summary.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339, finishedAt); err == nil {
			rec.Summary.FinishedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// RunEntityCount reports how many entity outcomes a run recorded.
func (l *Ledger) RunEntityCount(ctx context.Context, runID int64) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("run_entities").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build entity count: %w", err)
	}
	var n int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count run entities: %w", err)
	}
	return n, nil
}
