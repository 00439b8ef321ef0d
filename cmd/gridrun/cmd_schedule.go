package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/gridrun/internal/application/scan"
	httpapi "github.com/sawpanic/gridrun/internal/interfaces/http"
	"github.com/sawpanic/gridrun/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Screen periodically on a cron schedule",
		Long: `Run screening passes on schedule.cron (standard cron or @every descriptors).
Ticks that fire while a run is still in progress are skipped.`,
		Args: cobra.NoArgs,
		RunE: runSchedule,
	}

	cmd.Flags().AddFlagSet(sourceFlags())
	cmd.Flags().String("cron", "", "Schedule override, e.g. \"*/15 * * * *\" or \"@every 15m\"")
	cmd.Flags().Bool("skip-initial", false, "Wait for the first tick instead of running at startup")
	cmd.Flags().Bool("serve", false, "Also start the HTTP monitor server")
	addHTTPFlags(cmd)
	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cron") {
		cfg.Schedule.Cron, _ = cmd.Flags().GetString("cron")
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

	opts := []scheduler.Option{scheduler.WithOnRun(logRun())}
	if skip, _ := cmd.Flags().GetBool("skip-initial"); !skip {
		opts = append(opts, scheduler.WithRunOnStart())
	}

	sched, err := scheduler.New(cfg.Schedule.Cron, a.service, opts...)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	if serve, _ := cmd.Flags().GetBool("serve"); serve {
		return serveUntilDone(ctx, newServer(a, metrics))
	}

	<-ctx.Done()
	return nil
}

// logRun summarises each completed scheduled run
func logRun() func(*scan.Run) {
	return func(run *scan.Run) {
		event := log.Info().
			Str("run_id", run.ID).
			Int("evaluated", run.Report.Evaluated).
			Int("passed", run.Report.Passed()).
			Int("skipped", len(run.Report.Skipped)).
			Dur("duration", run.Duration())
		if best := run.Top(1); len(best) > 0 {
			event = event.Str("best_pair", best[0].Pair).Float64("best_score", best[0].Analysis.Score)
		}
		event.Msg("Scheduled run complete")
	}
}
