package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no run has been stored yet
var ErrNotFound = errors.New("run not found")

// Run statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// List limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// RunRecord is one persisted screening run
type RunRecord struct {
	ID              string          `json:"id" db:"id"`
	StartedAt       time.Time       `json:"started_at" db:"started_at"`
	Source          string          `json:"source" db:"source"`
	Status          string          `json:"status" db:"status"`
	Evaluated       int             `json:"evaluated" db:"evaluated"`
	Passed          int             `json:"passed" db:"passed"`
	Rejected        int             `json:"rejected" db:"rejected"`
	Skipped         int             `json:"skipped" db:"skipped"`
	DurationMS      int64           `json:"duration_ms" db:"duration_ms"`
	Error           string          `json:"error,omitempty" db:"error"`
	Recommendations json.RawMessage `json:"recommendations" db:"recommendations"` // JSONB
	Config          json.RawMessage `json:"config" db:"config"`                   // JSONB
}

// RunsRepo stores screening run history
type RunsRepo interface {
	// Insert stores a run; IDs are unique
	Insert(ctx context.Context, run RunRecord) error

	// Latest returns the most recently started run or ErrNotFound
	Latest(ctx context.Context) (*RunRecord, error)

	// List returns up to limit runs, newest first
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

// ClampLimit maps a requested list size into [1, MaxListLimit]
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// HealthCheck represents repository health status
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
}
