package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/config"
	httpapi "github.com/sawpanic/gridrun/internal/interfaces/http"
	"github.com/sawpanic/gridrun/internal/interfaces/http/handlers"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and screening runs over HTTP",
		Long: `Start the local monitor server. Runs are triggered with POST /runs and the
most recent result is served from GET /runs/latest.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().AddFlagSet(sourceFlags())
	addHTTPFlags(cmd)
	return cmd
}

func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "Listen host override")
	cmd.Flags().Int("port", 0, "Listen port override")
}

func applyHTTPFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.HTTP.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyHTTPFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := httpapi.NewMetricsRegistry()
	a, err := buildApp(ctx, cmd, cfg, scan.WithRecorder(metrics))
	if err != nil {
		return err
	}
	defer a.Close()

	server := newServer(a, metrics)
	return serveUntilDone(ctx, server)
}

func newServer(a *app, metrics *httpapi.MetricsRegistry) *httpapi.Server {
	h := handlers.NewHandlers(a.service, a.db.Health(), version)
	return httpapi.NewServer(a.cfg.HTTP, h, metrics)
}

// serveUntilDone runs server until ctx is cancelled, then shuts it down
func serveUntilDone(ctx context.Context, server *httpapi.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	return <-errCh
}
