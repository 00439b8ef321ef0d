package datasources

import (
	"context"
	"fmt"
	"strings"

	"github.com/sawpanic/gridrun/internal/cache"
	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/models"
)

// Source kinds
const (
	KindMock = "mock"
	KindFile = "file"
	KindDune = "dune"
)

// PairSource produces one snapshot of pair records per call
type PairSource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.PairRecord, error)
}

// FromConfig builds the configured source. Network sources are wrapped in a
// snapshot cache when c is non-nil and the cache TTL is positive.
func FromConfig(cfg config.Config, c cache.Cache) (PairSource, error) {
	var src PairSource

	switch cfg.Source.Kind {
	case KindMock, "":
		m := cfg.Source.Mock
		return NewMockSource(m.Seed, m.Days, m.Volatility), nil
	case KindFile:
		if cfg.Source.File == "" {
			return nil, fmt.Errorf("source kind %q requires a file path", KindFile)
		}
		return NewFileSource(cfg.Source.File), nil
	case KindDune:
		d, err := NewDuneSource(cfg.Source.Dune)
		if err != nil {
			return nil, err
		}
		src = d
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	if c != nil && cfg.Cache.TTL > 0 {
		src = NewCached(src, c, cfg.Cache.TTL)
	}
	return src, nil
}

// FilterPairs keeps the records whose pair name is in universe, preserving
// input order. Matching ignores case. An empty universe keeps everything.
func FilterPairs(records []models.PairRecord, universe []string) []models.PairRecord {
	if len(universe) == 0 {
		return records
	}

	allowed := make(map[string]struct{}, len(universe))
	for _, p := range universe {
		allowed[strings.ToUpper(strings.TrimSpace(p))] = struct{}{}
	}

	out := make([]models.PairRecord, 0, len(records))
	for _, r := range records {
		if _, ok := allowed[strings.ToUpper(r.PairName)]; ok {
			out = append(out, r)
		}
	}
	return out
}
