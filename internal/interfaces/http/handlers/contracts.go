package handlers

import (
	"time"

	"github.com/sawpanic/gridrun/internal/datasources"
	"github.com/sawpanic/gridrun/internal/persistence"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string                   `json:"status"` // ok|degraded
	Version       string                   `json:"version"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Timestamp     time.Time                `json:"timestamp"`
	Source        datasources.Health       `json:"source"`
	Database      *persistence.HealthCheck `json:"database,omitempty"`
	LastRun       *LastRun                 `json:"last_run,omitempty"`
}

// LastRun summarises the latest successful run
type LastRun struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Evaluated int       `json:"evaluated"`
	Passed    int       `json:"passed"`
}

// RunsResponse is the body of GET /runs
type RunsResponse struct {
	Runs  []persistence.RunRecord `json:"runs"`
	Count int                     `json:"count"`
}
