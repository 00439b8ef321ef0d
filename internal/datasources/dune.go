package datasources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/models"
	"github.com/sawpanic/gridrun/internal/secrets"
)

const (
	// maxResultBytes bounds a single results download
	maxResultBytes = 64 << 20
	// maxErrorSnippet bounds the upstream body kept on a StatusError
	maxErrorSnippet = 200
)

// DuneSource reads the latest result rows of a saved Dune query
type DuneSource struct {
	baseURL  string
	queryID  int
	apiKey   string
	client   *http.Client
	limiter  *Limiter
	breaker  *Breaker
	redactor *secrets.Redactor
	health   healthTracker
}

// NewDuneSource validates cfg and creates a client
func NewDuneSource(cfg config.DuneConfig) (*DuneSource, error) {
	if cfg.QueryID <= 0 {
		return nil, errors.New("dune: query_id must be positive")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("dune: DUNE_API_KEY is not set")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &DuneSource{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		queryID:  cfg.QueryID,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		limiter:  NewLimiter(cfg.RPS, cfg.Burst),
		breaker:  NewBreaker(KindDune, cfg.FailureThreshold, cfg.OpenTimeout),
		redactor: secrets.NewRedactor(cfg.APIKey),
	}, nil
}

// WithHTTPClient replaces the HTTP client
func (d *DuneSource) WithHTTPClient(c *http.Client) *DuneSource {
	d.client = c
	return d
}

// Name implements PairSource
func (d *DuneSource) Name() string {
	return KindDune
}

// CacheKey identifies this query's snapshot
func (d *DuneSource) CacheKey() string {
	return fmt.Sprintf("%s:%d", KindDune, d.queryID)
}

// Fetch implements PairSource
func (d *DuneSource) Fetch(ctx context.Context) ([]models.PairRecord, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("dune: rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := d.breaker.Execute(func() ([]byte, error) {
		return d.get(ctx)
	})
	d.health.record(err, time.Now())
	if err != nil {
		return nil, fmt.Errorf("dune: query %d: %w", d.queryID, err)
	}

	records, err := DecodeResult(body)
	if err != nil {
		return nil, fmt.Errorf("dune: query %d: %w", d.queryID, err)
	}

	log.Debug().
		Int("query_id", d.queryID).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Fetched Dune results")
	return records, nil
}

func (d *DuneSource) get(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/query/%d/results", d.baseURL, d.queryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Dune-API-Key", d.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := truncate(d.redactor.RedactString(string(body)), maxErrorSnippet)
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// Health implements HealthReporter
func (d *DuneSource) Health() Health {
	h := d.health.snapshot(d.Name())
	h.Breaker = d.breaker.State()
	h.ConsecutiveFailures = d.breaker.Counts().ConsecutiveFailures
	return h
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
