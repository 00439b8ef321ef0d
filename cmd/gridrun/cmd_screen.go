package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/gridrun/internal/interfaces/output"
)

func newScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run one screening pass and print recommendations",
		Long: `Fetch a pair snapshot from the configured source, screen every pair and print
the ranked grid recommendations. Output defaults to a table on a terminal and
JSON otherwise.`,
		Args: cobra.NoArgs,
		RunE: runScreen,
	}

	cmd.Flags().AddFlagSet(sourceFlags())
	cmd.Flags().Int("top", 0, "Maximum recommendations to show (0 uses output.top)")
	cmd.Flags().String("format", "", "Output format (table|json|csv)")
	cmd.Flags().String("out", "", "Write output to this file instead of stdout")
	cmd.Flags().Bool("persist", false, "Record the run in PostgreSQL (requires database.dsn or PG_DSN)")
	return cmd
}

func runScreen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		cfg.Database.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	top, _ := cmd.Flags().GetInt("top")
	if top <= 0 {
		top = cfg.Output.Top
	}
	outPath, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = resolveFormat(cfg.Output.Format, outPath)
	}

	emitter, err := output.New(format, top)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.service.Run(ctx)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := output.WriteFile(outPath, emitter, run); err != nil {
			return err
		}
		log.Info().Str("path", outPath).Str("format", format).Msg("Results written")
		return nil
	}

	if err := emitter.Emit(os.Stdout, run); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// resolveFormat picks the configured format, else a table for terminals and
// JSON for pipes and files
func resolveFormat(configured, outPath string) string {
	if configured != "" {
		return configured
	}
	if outPath == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		return output.FormatTable
	}
	return output.FormatJSON
}
