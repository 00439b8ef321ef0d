package persistence

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRunsRepo keeps the most recent runs in process memory
type MemoryRunsRepo struct {
	mu       sync.RWMutex
	runs     []RunRecord // oldest first
	capacity int
}

// NewMemoryRunsRepo keeps at most capacity runs; capacity <= 0 uses MaxListLimit
func NewMemoryRunsRepo(capacity int) *MemoryRunsRepo {
	if capacity <= 0 {
		capacity = MaxListLimit
	}
	return &MemoryRunsRepo{capacity: capacity}
}

// Insert implements RunsRepo
func (m *MemoryRunsRepo) Insert(_ context.Context, run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.ID == run.ID {
			return fmt.Errorf("duplicate run %s", run.ID)
		}
	}

	m.runs = append(m.runs, run)
	if len(m.runs) > m.capacity {
		m.runs = m.runs[len(m.runs)-m.capacity:]
	}
	return nil
}

// Latest implements RunsRepo
func (m *MemoryRunsRepo) Latest(_ context.Context) (*RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, ErrNotFound
	}

	latest := m.runs[0]
	for _, r := range m.runs[1:] {
		if !r.StartedAt.Before(latest.StartedAt) {
			latest = r
		}
	}
	return &latest, nil
}

// List implements RunsRepo
func (m *MemoryRunsRepo) List(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = ClampLimit(limit)
	out := make([]RunRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
