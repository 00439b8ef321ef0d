package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/application/scan"
)

// Runner performs one guarded screening run
type Runner interface {
	TryRun(ctx context.Context) (*scan.Run, error)
}

// Scheduler triggers screening runs on a cron expression. A tick that fires
// while a run is still executing is skipped.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	spec       string
	runOnStart bool
	onRun      func(*scan.Run)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	runs    atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Option customises a Scheduler
type Option func(*Scheduler)

// WithRunOnStart triggers a run as soon as Start is called
func WithRunOnStart() Option {
	return func(s *Scheduler) {
		s.runOnStart = true
	}
}

// WithOnRun is called after every successful run
func WithOnRun(fn func(*scan.Run)) Option {
	return func(s *Scheduler) {
		s.onRun = fn
	}
}

// New validates spec (standard cron syntax or descriptors such as "@every 15m")
func New(spec string, runner Runner, opts ...Option) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		runner: runner,
		spec:   spec,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{})),
			cron.WithLogger(cronLogger{}),
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Tick(s.context()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule screening: %w", err)
	}
	return s, nil
}

// Start begins scheduling; runs use a context derived from ctx
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	log.Info().Str("schedule", s.spec).Time("next", s.Next()).Msg("Scheduler started")
	s.cron.Start()

	if s.runOnStart {
		go s.Tick(s.context())
	}
}

// Stop halts scheduling, cancels any in-flight run and waits for it to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().
		Int64("runs", s.runs.Load()).
		Int64("skipped", s.skipped.Load()).
		Int64("failed", s.failed.Load()).
		Msg("Scheduler stopped")
}

// Tick performs one run unless another is in progress
func (s *Scheduler) Tick(ctx context.Context) {
	run, err := s.runner.TryRun(ctx)
	switch {
	case errors.Is(err, scan.ErrRunInProgress):
		s.skipped.Add(1)
		log.Warn().Str("schedule", s.spec).Msg("Previous run still in progress, skipping tick")
		return
	case err != nil:
		s.failed.Add(1)
		return
	}

	s.runs.Add(1)
	if s.onRun != nil {
		s.onRun(run)
	}
}

// Next returns the next scheduled activation
func (s *Scheduler) Next() time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now().UTC())
}

// Stats returns completed, skipped and failed tick counts
func (s *Scheduler) Stats() (runs, skipped, failed int64) {
	return s.runs.Load(), s.skipped.Load(), s.failed.Load()
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// cronLogger routes cron's internal logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
