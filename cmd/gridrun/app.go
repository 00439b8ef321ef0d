package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/cache"
	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/datasources"
	"github.com/sawpanic/gridrun/internal/infrastructure/db"
	"github.com/sawpanic/gridrun/internal/screener"
)

const defaultConfigHint = config.DefaultConfigPath

// sourceFlags are shared by every command that performs a screening run
func sourceFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("source", pflag.ContinueOnError)
	fs.String("source", "", "Data source override (mock|file|dune)")
	fs.String("file", "", "Snapshot path, implies --source file")
	fs.Int64("seed", 0, "Mock generator seed override")
	fs.Int("workers", runtime.NumCPU(), "Concurrent pair evaluations")
	fs.StringSlice("pairs", nil, "Pair universe override (comma-separated)")
	return fs
}

// loadConfig reads --config and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Lookup("source") == nil {
		return cfg, nil
	}

	if flags.Changed("source") {
		cfg.Source.Kind, _ = flags.GetString("source")
	}
	if flags.Changed("file") {
		cfg.Source.File, _ = flags.GetString("file")
		if !flags.Changed("source") {
			cfg.Source.Kind = datasources.KindFile
		}
	}
	if flags.Changed("seed") {
		cfg.Source.Mock.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("pairs") {
		cfg.Pairs, _ = flags.GetStringSlice("pairs")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired screening stack
type app struct {
	cfg     *config.Config
	db      *db.Manager
	service *scan.Service
}

// buildApp wires cache, source, persistence and the screening service
func buildApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts ...scan.Option) (*app, error) {
	workers, _ := cmd.Flags().GetInt("workers")

	sc, err := screener.New(cfg.Screening, screener.WithWorkers(workers))
	if err != nil {
		return nil, err
	}

	var snapshotCache cache.Cache
	if cfg.Cache.TTL > 0 {
		snapshotCache = cache.NewAuto(ctx, cfg.Cache.RedisAddr)
	}

	source, err := datasources.FromConfig(*cfg, snapshotCache)
	if err != nil {
		return nil, err
	}

	manager, err := db.NewManager(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise run history: %w", err)
	}

	opts = append([]scan.Option{
		scan.WithUniverse(cfg.Pairs),
		scan.WithRunsRepo(manager.Runs()),
	}, opts...)

	log.Info().
		Str("source", source.Name()).
		Int("pairs", len(cfg.Pairs)).
		Int("workers", workers).
		Bool("persistent", manager.IsEnabled()).
		Msg("Screening stack ready")

	return &app{
		cfg:     cfg,
		db:      manager,
		service: scan.NewService(source, sc, opts...),
	}, nil
}

// Close releases the database connection
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
