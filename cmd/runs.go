package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainsim/chainsim/sim/archive"
)

var runID string // Archived run to show in full

// runsCmd lists or shows archived runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs, or show one with --id",
	Run: func(cmd *cobra.Command, args []string) {
		initLogging()

		if archiveKind == "" {
			logrus.Fatalf("No archive configured; set --archive (or CHAINSIM_ARCHIVE)")
		}
		store, err := archive.NewStore(archiveKind, archivePath)
		if err != nil {
			logrus.Fatalf("Could not open archive: %v", err)
		}
		defer store.Close()
		if err := store.Init(cmd.Context()); err != nil {
			logrus.Fatalf("Could not open archive: %v", err)
		}

		if runID != "" {
			rec, ok, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				logrus.Fatalf("Could not load run: %v", err)
			}
			if !ok {
				logrus.Fatalf("No archived run %s", runID)
			}
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				logrus.Fatalf("Could not render run: %v", err)
			}
			fmt.Println(string(out))
			return
		}

		recs, err := store.ListRuns(cmd.Context())
		if err != nil {
			logrus.Fatalf("Could not list runs: %v", err)
		}
		if len(recs) == 0 {
			fmt.Println("no archived runs")
			return
		}
		for _, rec := range recs {
			fmt.Printf("%s  %s  stat=%s chains=%d truncated=%d\n",
				rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.Stat, rec.Summary.Chains, rec.Summary.Truncated)
		}
	},
}

func init() {
	runsCmd.Flags().StringVar(&runID, "id", "", "Show this archived run in full")
	rootCmd.AddCommand(runsCmd)
}
