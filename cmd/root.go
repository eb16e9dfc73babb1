package cmd

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// persistent flags shared by every subcommand
	logLevel    string // Log verbosity level
	archiveKind string // Run archive backend: memory, sqlite, or empty to disable
	archivePath string // Database file for the sqlite archive
)

// envDefaults seeds flag defaults from the environment so deployments can pin
// verbosity and archive placement without repeating flags. Explicit flags
// still win.
type envDefaults struct {
	LogLevel    string `env:"CHAINSIM_LOG" envDefault:"info"`
	ArchiveKind string `env:"CHAINSIM_ARCHIVE"`
	ArchivePath string `env:"CHAINSIM_ARCHIVE_PATH" envDefault:"chainsim.db"`
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "chainsim",
	Short: "Branching-process simulator for transmission chains",
	Long: `chainsim simulates transmission chains as branching processes: each case
draws a number of secondary cases from an offspring distribution, optionally
spaced in time by a serial-interval distribution. Batches report chain sizes
and lengths, and observed outbreak data can be scored against closed-form or
simulated likelihoods.`,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogging applies the --log flag; every subcommand calls it first.
func initLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// init sets up persistent flags with environment-derived defaults
func init() {
	defaults := envDefaults{}
	if err := env.Parse(&defaults); err != nil {
		logrus.Fatalf("Invalid environment configuration: %v", err)
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", defaults.LogLevel, "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&archiveKind, "archive", defaults.ArchiveKind, "Archive completed runs (memory or sqlite; empty disables archiving)")
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive-path", defaults.ArchivePath, "Database file for the sqlite archive")
}
