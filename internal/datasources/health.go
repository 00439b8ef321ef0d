package datasources

import (
	"sync"
	"time"
)

// Health summarises a network source for the monitor endpoint
type Health struct {
	Source              string    `json:"source"`
	Breaker             string    `json:"breaker,omitempty"`
	ConsecutiveFailures uint32    `json:"consecutive_failures"`
	LastSuccess         time.Time `json:"last_success"`
	LastFailure         time.Time `json:"last_failure"`
	LastError           string    `json:"last_error,omitempty"`
}

// Healthy reports whether the last attempt succeeded
func (h Health) Healthy() bool {
	return h.Breaker != "open" && !h.LastFailure.After(h.LastSuccess)
}

// HealthReporter is implemented by sources that track their own health
type HealthReporter interface {
	Health() Health
}

// healthTracker records fetch outcomes
type healthTracker struct {
	mu          sync.RWMutex
	lastSuccess time.Time
	lastFailure time.Time
	lastErr     string
}

func (h *healthTracker) record(err error, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.lastFailure = at
		h.lastErr = err.Error()
		return
	}
	h.lastSuccess = at
	h.lastErr = ""
}

func (h *healthTracker) snapshot(source string) Health {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Health{
		Source:      source,
		LastSuccess: h.lastSuccess,
		LastFailure: h.lastFailure,
		LastError:   h.lastErr,
	}
}
