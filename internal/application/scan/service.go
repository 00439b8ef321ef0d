package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/datasources"
	"github.com/sawpanic/gridrun/internal/models"
	"github.com/sawpanic/gridrun/internal/persistence"
	"github.com/sawpanic/gridrun/internal/screener"
)

// ErrRunInProgress is returned by TryRun while another run is executing
var ErrRunInProgress = errors.New("screening run already in progress")

// Recorder observes fetches and finished runs
type Recorder interface {
	ObserveFetch(source string, d time.Duration, err error)
	ObserveRun(run *Run)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, time.Duration, error) {}
func (nopRecorder) ObserveRun(*Run)                          {}

// Run is the outcome of one fetch-and-screen cycle
type Run struct {
	ID             string                 `json:"run_id"`
	StartedAt      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	Records        int                    `json:"records"` // After universe filtering
	FetchDuration  time.Duration          `json:"-"`
	ScreenDuration time.Duration          `json:"-"`
	Parameters     config.ScreeningConfig `json:"parameters"`
	Report         screener.Report        `json:"report"`
	Error          string                 `json:"error,omitempty"`
}

// Failed reports whether the run aborted before screening
func (r *Run) Failed() bool {
	return r.Error != ""
}

// Status is persistence.StatusOK or persistence.StatusFailed
func (r *Run) Status() string {
	if r.Failed() {
		return persistence.StatusFailed
	}
	return persistence.StatusOK
}

// Duration is fetch plus screen time
func (r *Run) Duration() time.Duration {
	return r.FetchDuration + r.ScreenDuration
}

// Top returns at most n recommendations; n <= 0 returns all of them
func (r *Run) Top(n int) []models.Recommendation {
	return r.Report.Top(n)
}

// Record converts the run into its persisted form
func (r *Run) Record() (persistence.RunRecord, error) {
	recs, err := json.Marshal(r.Report.Recommendations)
	if err != nil {
		return persistence.RunRecord{}, fmt.Errorf("marshal recommendations: %w", err)
	}
	params, err := json.Marshal(r.Parameters)
	if err != nil {
		return persistence.RunRecord{}, fmt.Errorf("marshal parameters: %w", err)
	}

	return persistence.RunRecord{
		ID:              r.ID,
		StartedAt:       r.StartedAt,
		Source:          r.Source,
		Status:          r.Status(),
		Evaluated:       r.Report.Evaluated,
		Passed:          r.Report.Passed(),
		Rejected:        len(r.Report.Rejected),
		Skipped:         len(r.Report.Skipped),
		DurationMS:      r.Duration().Milliseconds(),
		Error:           r.Error,
		Recommendations: recs,
		Config:          params,
	}, nil
}

// Service runs screening cycles against one source
type Service struct {
	source   datasources.PairSource
	screener *screener.Screener
	universe []string
	runs     persistence.RunsRepo
	recorder Recorder
	now      func() time.Time
	running  atomic.Bool

	mu     sync.RWMutex
	latest *Run
}

// Option customises a Service
type Option func(*Service)

// WithUniverse restricts screening to the named pairs
func WithUniverse(pairs []string) Option {
	return func(s *Service) {
		s.universe = pairs
	}
}

// WithRunsRepo persists every run
func WithRunsRepo(repo persistence.RunsRepo) Option {
	return func(s *Service) {
		s.runs = repo
	}
}

// WithRecorder reports fetch and run metrics
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a screening service
func NewService(source datasources.PairSource, sc *screener.Screener, opts ...Option) *Service {
	s := &Service{
		source:   source,
		screener: sc,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run fetches a snapshot, screens it and records the outcome. A fetch failure
// returns the failed run together with the error.
func (s *Service) Run(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  s.now().UTC(),
		Source:     s.source.Name(),
		Parameters: s.screener.Config(),
	}

	fetchStart := time.Now()
	records, err := s.source.Fetch(ctx)
	run.FetchDuration = time.Since(fetchStart)
	s.recorder.ObserveFetch(run.Source, run.FetchDuration, err)

	if err != nil {
		run.Error = err.Error()
		s.finish(ctx, run)
		log.Error().Err(err).Str("run_id", run.ID).Str("source", run.Source).Msg("Screening run failed")
		return run, fmt.Errorf("fetch from %s: %w", run.Source, err)
	}

	records = datasources.FilterPairs(records, s.universe)
	run.Records = len(records)

	screenStart := time.Now()
	run.Report = s.screener.Screen(records)
	run.ScreenDuration = time.Since(screenStart)

	s.finish(ctx, run)

	log.Info().
		Str("run_id", run.ID).
		Str("source", run.Source).
		Int("records", run.Records).
		Int("passed", run.Report.Passed()).
		Int("rejected", len(run.Report.Rejected)).
		Int("skipped", len(run.Report.Skipped)).
		Dur("duration", run.Duration()).
		Msg("Screening run complete")

	return run, nil
}

// TryRun is Run unless another TryRun is still executing, in which case it
// returns ErrRunInProgress immediately
func (s *Service) TryRun(ctx context.Context) (*Run, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)
	return s.Run(ctx)
}

func (s *Service) finish(ctx context.Context, run *Run) {
	s.recorder.ObserveRun(run)

	if !run.Failed() {
		s.mu.Lock()
		s.latest = run
		s.mu.Unlock()
	}

	if s.runs == nil {
		return
	}
	rec, err := run.Record()
	if err == nil {
		err = s.runs.Insert(ctx, rec)
	}
	if err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to persist run")
	}
}

// Latest returns the most recent successful run, or nil before the first one
func (s *Service) Latest() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Runs returns the configured repository, or nil
func (s *Service) Runs() persistence.RunsRepo {
	return s.runs
}

// Source returns the data source name
func (s *Service) Source() string {
	return s.source.Name()
}

// SourceHealth returns the source's health when it tracks one
func (s *Service) SourceHealth() (datasources.Health, bool) {
	h, ok := s.source.(datasources.HealthReporter)
	if !ok {
		return datasources.Health{}, false
	}
	return h.Health(), true
}
