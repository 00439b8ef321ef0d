package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/gridrun/internal/persistence"
)

// Schema creates the run history table
const Schema = `
CREATE TABLE IF NOT EXISTS screen_runs (
	id              UUID PRIMARY KEY,
	started_at      TIMESTAMPTZ NOT NULL,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL,
	evaluated       INTEGER NOT NULL DEFAULT 0,
	passed          INTEGER NOT NULL DEFAULT 0,
	rejected        INTEGER NOT NULL DEFAULT 0,
	skipped         INTEGER NOT NULL DEFAULT 0,
	duration_ms     BIGINT NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	recommendations JSONB NOT NULL DEFAULT '[]',
	config          JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS screen_runs_started_at_idx ON screen_runs (started_at DESC);`

const runColumns = `id, started_at, source, status, evaluated, passed, rejected, skipped,
		duration_ms, error, recommendations, config`

// runsRepo implements persistence.RunsRepo for PostgreSQL
type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a new PostgreSQL run history repository
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &runsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Migrate creates the schema when it does not exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate screen_runs: %w", err)
	}
	return nil
}

// Insert adds a new run record
func (r *runsRepo) Insert(ctx context.Context, run persistence.RunRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO screen_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.Source, run.Status,
		run.Evaluated, run.Passed, run.Rejected, run.Skipped,
		run.DurationMS, run.Error, jsonb(run.Recommendations, "[]"), jsonb(run.Config, "{}"))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate run %s: %w", run.ID, err)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Latest returns the most recently started run
func (r *runsRepo) Latest(ctx context.Context) (*persistence.RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + runColumns + `
		FROM screen_runs
		ORDER BY started_at DESC
		LIMIT 1`

	var row runRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	run := row.record()
	return &run, nil
}

// List returns up to limit runs, newest first
func (r *runsRepo) List(ctx context.Context, limit int) ([]persistence.RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + runColumns + `
		FROM screen_runs
		ORDER BY started_at DESC
		LIMIT $1`

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, persistence.ClampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]persistence.RunRecord, len(rows))
	for i, row := range rows {
		runs[i] = row.record()
	}
	return runs, nil
}

// runRow scans JSONB columns into owned byte slices
type runRow struct {
	ID              string    `db:"id"`
	StartedAt       time.Time `db:"started_at"`
	Source          string    `db:"source"`
	Status          string    `db:"status"`
	Evaluated       int       `db:"evaluated"`
	Passed          int       `db:"passed"`
	Rejected        int       `db:"rejected"`
	Skipped         int       `db:"skipped"`
	DurationMS      int64     `db:"duration_ms"`
	Error           string    `db:"error"`
	Recommendations []byte    `db:"recommendations"`
	Config          []byte    `db:"config"`
}

func (r runRow) record() persistence.RunRecord {
	return persistence.RunRecord{
		ID:              r.ID,
		StartedAt:       r.StartedAt,
		Source:          r.Source,
		Status:          r.Status,
		Evaluated:       r.Evaluated,
		Passed:          r.Passed,
		Rejected:        r.Rejected,
		Skipped:         r.Skipped,
		DurationMS:      r.DurationMS,
		Error:           r.Error,
		Recommendations: r.Recommendations,
		Config:          r.Config,
	}
}

func jsonb(raw []byte, empty string) []byte {
	if len(raw) == 0 {
		return []byte(empty)
	}
	return raw
}
