package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores opaque snapshot bytes under a TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Stats reports hit/miss counters
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process TTL cache. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached value
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		m.misses++
		return nil, false, nil
	}

	m.hits++
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value; ttl <= 0 keeps it until overwritten
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Stats returns the current counters
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Hits: m.hits, Misses: m.misses, Entries: len(m.entries)}
}

// NewAuto returns a Redis cache when addr is set and reachable, otherwise an
// in-memory cache
func NewAuto(ctx context.Context, addr string) Cache {
	if addr == "" {
		return NewMemory()
	}

	r, err := NewRedis(ctx, addr)
	if err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, using in-memory cache")
		return NewMemory()
	}
	return r
}
