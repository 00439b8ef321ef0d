package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "gridrun"
	version = "v0.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Grid trading pair screener",
		Version: version,
		Long: `gridrun screens trading pairs for grid trading suitability.

Each pair is scored on volatility, liquidity and trend strength, gated against
configured thresholds, and passing pairs receive a grid recommendation with
price range, grid size, investment size and profit scenarios.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default "+defaultConfigHint+")")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(
		newScreenCmd(),
		newServeCmd(),
		newScheduleCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// setupLogging applies the persistent logging flags
func setupLogging(cmd *cobra.Command, _ []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return fmt.Errorf("invalid log level %q", levelName)
	}
	zerolog.SetGlobalLevel(level)

	if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}
