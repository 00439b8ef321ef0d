package datasources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/cache"
	"github.com/sawpanic/gridrun/internal/models"
)

// Cached serves snapshots of an inner source from a cache for ttl.
// Cache failures fall through to the inner source.
type Cached struct {
	inner PairSource
	cache cache.Cache
	ttl   time.Duration
	key   string
}

// NewCached wraps inner
func NewCached(inner PairSource, c cache.Cache, ttl time.Duration) *Cached {
	key := inner.Name()
	if k, ok := inner.(interface{ CacheKey() string }); ok {
		key = k.CacheKey()
	}
	return &Cached{
		inner: inner,
		cache: c,
		ttl:   ttl,
		key:   "snapshot:" + key,
	}
}

// Name implements PairSource
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Fetch implements PairSource
func (c *Cached) Fetch(ctx context.Context) ([]models.PairRecord, error) {
	data, ok, err := c.cache.Get(ctx, c.key)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("key", c.key).Msg("Snapshot cache read failed")
	case ok:
		var records []models.PairRecord
		if err := json.Unmarshal(data, &records); err == nil {
			log.Debug().Str("key", c.key).Int("records", len(records)).Msg("Snapshot cache hit")
			return records, nil
		}
		log.Warn().Str("key", c.key).Msg("Discarding corrupt cached snapshot")
	}

	records, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(records)
	if err == nil {
		err = c.cache.Set(ctx, c.key, data, c.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Str("key", c.key).Msg("Snapshot cache write failed")
	}
	return records, nil
}

// Health passes through the inner source's health when it tracks one
func (c *Cached) Health() Health {
	if h, ok := c.inner.(HealthReporter); ok {
		return h.Health()
	}
	return Health{Source: c.inner.Name()}
}
