package scrubward

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// errReported marks a failure the command has already printed; Execute turns
// it into exit code 1 without a second message. Returning it instead of
// calling os.Exit lets deferred cleanup run.
var errReported = errors.New("already reported")

var (
	flagJSON     bool
	flagNoColor  bool
	flagLogLevel string
	flagData     string
	flagPolicy   string

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the Scrubward CLI.
var rootCmd = &cobra.Command{
	Use:           "scrubward",
	Short:         "Scrub sensitive data before it leaves your boundary",
	Long:          "Scrubward detects sensitive entities in text, applies tiered policy actions, and records every operation in a tamper-evident audit chain. Redactions are reversible for cleared actors holding the operation receipt.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

// Execute runs the Scrubward CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errReported) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "base data directory (default $SCRUBWARD_DATA or ./data)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "policy manifest directory (default from config; built-in fail-closed policy when unset)")
}

func newLogger() *log.Logger {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "scrubward",
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
	})
}
