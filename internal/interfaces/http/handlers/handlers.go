package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/datasources"
	"github.com/sawpanic/gridrun/internal/interfaces/output"
	"github.com/sawpanic/gridrun/internal/persistence"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores id in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "unknown"
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	service  *scan.Service
	dbHealth persistence.RepositoryHealth
	version  string
	started  time.Time
}

// NewHandlers creates handlers over the screening service. dbHealth may be nil.
func NewHandlers(service *scan.Service, dbHealth persistence.RepositoryHealth, version string) *Handlers {
	return &Handlers{
		service:  service,
		dbHealth: dbHealth,
		version:  version,
		started:  time.Now(),
	}
}

// LatestRun serves the most recent successful run; ?top=n limits recommendations
func (h *Handlers) LatestRun(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", 0)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	run := h.service.Latest()
	if run == nil {
		h.writeError(w, r, http.StatusNotFound, "no_runs", "No screening run has completed yet")
		return
	}
	h.writeJSON(w, http.StatusOK, output.NewDocument(run, top))
}

// TriggerRun starts a screening run and returns its result
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.TryRun(r.Context())
	switch {
	case errors.Is(err, scan.ErrRunInProgress):
		h.writeError(w, r, http.StatusConflict, "run_in_progress", err.Error())
		return
	case err != nil:
		h.writeError(w, r, http.StatusBadGateway, "source_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, output.NewDocument(run, 0))
}

// ListRuns serves persisted run history; ?limit=n bounds the result
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", persistence.DefaultListLimit)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	repo := h.service.Runs()
	if repo == nil {
		h.writeJSON(w, http.StatusOK, RunsResponse{Runs: []persistence.RunRecord{}})
		return
	}

	runs, err := repo.List(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("Failed to list runs")
		h.writeError(w, r, http.StatusInternalServerError, "storage_failed", "Run history is unavailable")
		return
	}
	if runs == nil {
		runs = []persistence.RunRecord{}
	}
	h.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

// Health reports liveness plus source and database status
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC(),
		Source:        datasources.Health{Source: h.service.Source()},
	}

	if src, ok := h.service.SourceHealth(); ok {
		resp.Source = src
		if !src.Healthy() {
			resp.Status = "degraded"
		}
	}

	if h.dbHealth != nil {
		db := h.dbHealth.Health(r.Context())
		resp.Database = &db
		if !db.Healthy {
			resp.Status = "degraded"
		}
	}

	if run := h.service.Latest(); run != nil {
		resp.LastRun = &LastRun{
			ID:        run.ID,
			Timestamp: run.StartedAt,
			Passed:    run.Report.Passed(),
			Evaluated: run.Report.Evaluated,
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return v, nil
}
