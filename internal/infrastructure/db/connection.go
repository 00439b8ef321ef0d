package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/persistence"
	"github.com/sawpanic/gridrun/internal/persistence/postgres"
	"github.com/sawpanic/gridrun/internal/secrets"
)

// Manager owns the database connection and the run history repository.
// With the database disabled, runs are kept in memory.
type Manager struct {
	db     *sqlx.DB
	config config.DatabaseConfig
	runs   persistence.RunsRepo
	health *healthChecker
}

// NewManager connects, migrates and builds the repository
func NewManager(ctx context.Context, cfg config.DatabaseConfig) (*Manager, error) {
	if !cfg.Enabled {
		return &Manager{
			config: cfg,
			runs:   persistence.NewMemoryRunsRepo(0),
			health: &healthChecker{enabled: false},
		}, nil
	}

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required when enabled")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := NewManagerWithDB(ctx, db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info().
		Str("dsn", secrets.RedactDSN(cfg.DSN)).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Run history persisted to PostgreSQL")
	return m, nil
}

// NewManagerWithDB migrates an already opened database
func NewManagerWithDB(ctx context.Context, db *sqlx.DB, cfg config.DatabaseConfig) (*Manager, error) {
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}

	cfg.Enabled = true
	return &Manager{
		db:     db,
		config: cfg,
		runs:   postgres.NewRunsRepo(db, cfg.QueryTimeout),
		health: &healthChecker{
			enabled: true,
			db:      db,
			timeout: cfg.QueryTimeout,
		},
	}, nil
}

// Runs returns the run history repository
func (m *Manager) Runs() persistence.RunsRepo {
	return m.runs
}

// Health returns the health checker interface
func (m *Manager) Health() persistence.RepositoryHealth {
	return m.health
}

// IsEnabled returns whether database persistence is enabled
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled && m.db != nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// healthChecker implements persistence.RepositoryHealth
type healthChecker struct {
	enabled bool
	db      *sqlx.DB
	timeout time.Duration
}

// Health returns current repository health status
func (h *healthChecker) Health(ctx context.Context) persistence.HealthCheck {
	if !h.enabled {
		return persistence.HealthCheck{
			Healthy:        true,
			Errors:         []string{"Database persistence disabled"},
			ConnectionPool: map[string]int{"status": 0},
			LastCheck:      time.Now(),
		}
	}

	start := time.Now()

	var errs []string
	healthy := true
	if err := h.Ping(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	return persistence.HealthCheck{
		Healthy: healthy,
		Errors:  errs,
		ConnectionPool: map[string]int{
			"max_open": stats.MaxOpenConnections,
			"open":     stats.OpenConnections,
			"in_use":   stats.InUse,
			"idle":     stats.Idle,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

// Ping tests basic connectivity to database
func (h *healthChecker) Ping(ctx context.Context) error {
	if !h.enabled {
		return nil
	}

	timeout := h.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.db.PingContext(pingCtx)
}
