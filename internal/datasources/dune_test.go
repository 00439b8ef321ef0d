package datasources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gridrun/internal/config"
)

const duneBody = `{
  "execution_id": "01HXYZ",
  "state": "QUERY_STATE_COMPLETED",
  "result": {
    "rows": [
      {
        "pair_name": "ETH/USDT",
        "current_price": "2010.5",
        "volume_24h": 2500000000,
        "price_history": [
          {"price": "2010.5", "timestamp": "2025-09-07 02:00:00.000 UTC"},
          {"price": 2005.0, "timestamp": "2025-09-07 01:00:00.000 UTC"},
          {"price": "2000", "timestamp": "2025-09-07 00:00:00.000 UTC"}
        ]
      },
      {"pair_name": "BAD/USDT", "volume_24h": "lots", "price_history": []}
    ],
    "metadata": {"column_names": ["pair_name", "current_price", "volume_24h", "price_history"]}
  }
}`

func duneConfig(url string) config.DuneConfig {
	return config.DuneConfig{
		BaseURL:          url + "/",
		QueryID:          42,
		APIKey:           "secret",
		Timeout:          5 * time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

func TestDuneSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query/42/results", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Dune-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(duneBody))
	}))
	defer srv.Close()

	src, err := NewDuneSource(duneConfig(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "dune", src.Name())
	assert.Equal(t, "dune:42", src.CacheKey())

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	eth := records[0]
	assert.Equal(t, "ETH/USDT", eth.PairName)
	assert.Equal(t, 2010.5, eth.CurrentPrice)
	assert.Equal(t, 2.5e9, eth.Volume24h)
	require.Len(t, eth.PriceHistory, 3)
	assert.Equal(t, 2005.0, eth.PriceHistory[1].Price)
	assert.Equal(t, time.Date(2025, 9, 7, 2, 0, 0, 0, time.UTC), eth.PriceHistory[0].Timestamp)

	h := src.Health()
	assert.True(t, h.Healthy())
	assert.Equal(t, "closed", h.Breaker)
	assert.False(t, h.LastSuccess.IsZero())
}

func TestDuneSourceBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	src, err := NewDuneSource(duneConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := src.Fetch(ctx)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadGateway, se.Code)
		assert.True(t, se.Temporary())
	}

	_, err = src.Fetch(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	h := src.Health()
	assert.Equal(t, "open", h.Breaker)
	assert.False(t, h.Healthy())
	assert.NotEmpty(t, h.LastError)
}

func TestDuneSourceClientErrorsDoNotTrip(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "invalid API key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := duneConfig(srv.URL)
	cfg.FailureThreshold = 1
	src, err := NewDuneSource(cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, "closed", src.Health().Breaker)
}

func TestDuneSourceRedactsKeyInErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key "+r.Header.Get("X-Dune-API-Key")+" is not allowed", http.StatusForbidden)
	}))
	defer srv.Close()

	src, err := NewDuneSource(duneConfig(srv.URL))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.NotContains(t, statusErr.Body, "secret")
	assert.Contains(t, statusErr.Body, "[REDACTED]")
}

func TestDuneSourceTruncatesErrorOnRuneBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("x" + strings.Repeat("é", 150)))
	}))
	defer srv.Close()

	src, err := NewDuneSource(duneConfig(srv.URL))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, utf8.ValidString(statusErr.Body))
	assert.Len(t, statusErr.Body, 199)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "", truncate("é", 1))
}

func TestDuneSourceRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(duneBody))
	}))
	defer srv.Close()

	src, err := NewDuneSource(duneConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDuneSourceValidation(t *testing.T) {
	_, err := NewDuneSource(config.DuneConfig{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewDuneSource(config.DuneConfig{QueryID: 1})
	assert.ErrorContains(t, err, "DUNE_API_KEY")
}
