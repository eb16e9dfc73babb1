package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chainsim/chainsim/sim"
	"github.com/chainsim/chainsim/sim/archive"
	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
	"github.com/chainsim/chainsim/sim/serial"
)

var (
	// batch shape
	chains     int       // Number of independent chains
	seeds      int       // Index cases per chain
	statName   string    // Reported statistic (size, length, both)
	maxSize    int       // Size cutoff, 0 disables
	maxLen     int       // Generation cutoff, 0 disables
	maxTime    float64   // Absolute time cutoff, 0 disables
	startTimes []float64 // Chain start times, one shared or one per chain
	trackTree  bool      // Retain the full event tree
	workers    int       // Parallel chain workers
	seed       int64     // Master seed for per-chain streams

	// distributions
	offspringFamily string            // Offspring family name
	offspringParams map[string]string // Offspring parameters as name=value
	serialFamily    string            // Serial-interval family name
	serialParams    map[string]string // Serial-interval parameters as name=value

	// inputs and outputs
	scenarioPath string // YAML scenario replacing the inline flags
	outPath      string // CSV output location
)

// inlineFlagNames are the simulate flags a scenario file replaces.
var inlineFlagNames = []string{
	"chains", "seeds", "stat", "max-size", "max-len", "max-time", "t0",
	"tree", "workers", "seed", "offspring", "param", "serial", "serial-param",
}

// simulateCmd runs one batch of chains and reports per-chain statistics
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a batch of transmission chains",
	Run: func(cmd *cobra.Command, args []string) {
		initLogging()

		cfg, scenarioText := simulationConfig(cmd)

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Invalid simulation config: %v", err)
		}

		start := time.Now()
		rs, err := s.Run(cmd.Context())
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulated %d chains in %s", rs.CountChains(), time.Since(start).Round(time.Millisecond))

		printSummary(rs)

		if outPath != "" {
			if err := chain.ExportCSV(outPath, rs); err != nil {
				logrus.Fatalf("Could not write %s: %v", outPath, err)
			}
			logrus.Infof("Wrote %s", outPath)
		}

		archiveRun(cmd.Context(), scenarioText, cfg.Seed, rs)
	},
}

// simulationConfig builds the engine config from either the scenario file or
// the inline flags; mixing the two is an error.
func simulationConfig(cmd *cobra.Command) (sim.Config, string) {
	if scenarioPath == "" {
		return inlineConfig(), ""
	}
	for _, name := range inlineFlagNames {
		if cmd.Flags().Changed(name) {
			logrus.Fatalf("--%s cannot be combined with --scenario", name)
		}
	}
	sc, text, err := LoadScenario(scenarioPath)
	if err != nil {
		logrus.Fatalf("Could not load scenario: %v", err)
	}
	return sc.Config(), text
}

func inlineConfig() sim.Config {
	offParams, err := parseParams(offspringParams)
	if err != nil {
		logrus.Fatalf("Invalid offspring parameter: %v", err)
	}
	cfg := sim.Config{
		Chains:     chains,
		Seeds:      seeds,
		Stat:       chain.Stat(statName),
		MaxSize:    maxSize,
		MaxLen:     maxLen,
		MaxTime:    maxTime,
		StartTimes: startTimes,
		TrackTree:  trackTree,
		Workers:    workers,
		Seed:       seed,
		Offspring:  offspring.Spec{Family: offspringFamily, Params: offParams},
	}
	if serialFamily != "" {
		serParams, err := parseParams(serialParams)
		if err != nil {
			logrus.Fatalf("Invalid serial-interval parameter: %v", err)
		}
		cfg.Serial = &serial.Spec{Family: serialFamily, Params: serParams}
	}
	return cfg
}

// printSummary writes the batch aggregates to stdout as YAML.
func printSummary(rs *chain.ResultSet) {
	out, err := yaml.Marshal(chain.Summarize(rs))
	if err != nil {
		logrus.Fatalf("Could not render summary: %v", err)
	}
	fmt.Print(string(out))
}

// archiveRun persists the batch when an archive backend is configured.
func archiveRun(ctx context.Context, scenarioText string, masterSeed int64, rs *chain.ResultSet) {
	if archiveKind == "" {
		return
	}
	store, err := archive.NewStore(archiveKind, archivePath)
	if err != nil {
		logrus.Fatalf("Could not open archive: %v", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		logrus.Fatalf("Could not open archive: %v", err)
	}
	rec := archive.NewRunRecord(scenarioText, masterSeed, rs)
	if err := store.SaveRun(ctx, rec); err != nil {
		logrus.Fatalf("Could not archive run: %v", err)
	}
	logrus.Infof("Archived run %s", rec.ID)
}

// init sets up simulate flags and attaches the subcommand
func init() {
	simulateCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (replaces the flags below)")

	simulateCmd.Flags().IntVar(&chains, "chains", 1, "Number of independent chains to simulate")
	simulateCmd.Flags().IntVar(&seeds, "seeds", 1, "Index cases per chain")
	simulateCmd.Flags().StringVar(&statName, "stat", "size", "Statistic to report (size, length, both)")
	simulateCmd.Flags().IntVar(&maxSize, "max-size", 0, "Stop a chain once it reaches this many cases (0 = no cutoff)")
	simulateCmd.Flags().IntVar(&maxLen, "max-len", 0, "Stop a chain once it spans this many generations (0 = no cutoff)")
	simulateCmd.Flags().Float64Var(&maxTime, "max-time", 0, "Drop cases past this absolute time (0 = no cutoff)")
	simulateCmd.Flags().Float64SliceVar(&startTimes, "t0", nil, "Chain start time, one value or one per chain")
	simulateCmd.Flags().BoolVar(&trackTree, "tree", false, "Keep the full event tree of every chain")
	simulateCmd.Flags().IntVar(&workers, "workers", 1, "Parallel workers for the batch")
	simulateCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random chain growth")

	simulateCmd.Flags().StringVar(&offspringFamily, "offspring", "", "Offspring family ("+strings.Join(offspring.Families(), ", ")+")")
	simulateCmd.Flags().StringToStringVar(&offspringParams, "param", nil, "Offspring parameter as name=value (repeatable)")
	simulateCmd.Flags().StringVar(&serialFamily, "serial", "", "Serial-interval family ("+strings.Join(serial.Families(), ", ")+")")
	simulateCmd.Flags().StringToStringVar(&serialParams, "serial-param", nil, "Serial-interval parameter as name=value (repeatable)")

	simulateCmd.Flags().StringVar(&outPath, "out", "", "Write per-chain results as CSV to this file")

	rootCmd.AddCommand(simulateCmd)
}
