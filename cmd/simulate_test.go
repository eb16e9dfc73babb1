package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/sim/archive"
	"github.com/chainsim/chainsim/sim/chain"
)

func sampleResults() *chain.ResultSet {
	return &chain.ResultSet{
		Stat: chain.StatBoth,
		Results: []chain.Result{
			{ChainID: 0, Size: 4, Length: 2},
			{ChainID: 1, Size: 1, Length: 1},
			{ChainID: 2, Size: 9, Length: 3, Truncated: true},
		},
	}
}

func TestPrintSummary_WritesYAMLToStdout(t *testing.T) {
	// GIVEN a finished batch
	rs := sampleResults()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// WHEN the summary is printed
	printSummary(rs)

	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	// THEN the aggregates MUST appear on stdout as YAML
	assert.Contains(t, output, "chains: 3", "chain count must be on stdout")
	assert.Contains(t, output, "truncated: 1", "truncation count must be on stdout")
	assert.Contains(t, output, "size:", "size block expected for a both-stat run")
	assert.Contains(t, output, "length:", "length block expected for a both-stat run")
	assert.Contains(t, output, "std_dev:", "summary fields use snake_case keys")
}

func TestInlineConfig_MapsFlagValues(t *testing.T) {
	// GIVEN inline flag values as cobra would have bound them
	chains, seeds, statName = 50, 2, "length"
	maxSize, maxLen, maxTime = 100, 10, 14.5
	startTimes = []float64{1, 2}
	trackTree, workers, seed = true, 4, 7
	offspringFamily = "pois"
	offspringParams = map[string]string{"lambda": "0.8"}
	serialFamily = "exponential"
	serialParams = map[string]string{"rate": "0.2"}

	// WHEN the engine config is assembled
	cfg := inlineConfig()

	// THEN every flag maps onto its config field
	assert.Equal(t, 50, cfg.Chains)
	assert.Equal(t, 2, cfg.Seeds)
	assert.Equal(t, chain.StatLength, cfg.Stat)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 10, cfg.MaxLen)
	assert.Equal(t, 14.5, cfg.MaxTime)
	assert.Equal(t, []float64{1, 2}, cfg.StartTimes)
	assert.True(t, cfg.TrackTree)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "pois", cfg.Offspring.Family)
	assert.Equal(t, 0.8, cfg.Offspring.Params["lambda"])
	require.NotNil(t, cfg.Serial)
	assert.Equal(t, "exponential", cfg.Serial.Family)
	assert.Equal(t, 0.2, cfg.Serial.Params["rate"])
}

func TestInlineConfig_NoSerialFlagLeavesSerialNil(t *testing.T) {
	chains, seeds, statName = 10, 1, "size"
	maxSize, maxLen, maxTime = 0, 0, 0
	startTimes = nil
	trackTree, workers, seed = false, 1, 42
	offspringFamily = "pois"
	offspringParams = map[string]string{"lambda": "0.5"}
	serialFamily = ""
	serialParams = nil

	cfg := inlineConfig()

	assert.Nil(t, cfg.Serial, "no --serial flag must leave the config untimed")
}

func TestArchiveRun_PersistsBatch(t *testing.T) {
	// GIVEN a sqlite archive configured through the persistent flags
	oldKind, oldPath := archiveKind, archivePath
	defer func() { archiveKind, archivePath = oldKind, oldPath }()
	archiveKind = "sqlite"
	archivePath = filepath.Join(t.TempDir(), "runs.db")

	ctx := context.Background()

	// WHEN a finished batch is archived
	archiveRun(ctx, "chains: 3\n", 42, sampleResults())

	// THEN a fresh store on the same path sees the run
	store, err := archive.NewStore(archiveKind, archivePath)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	defer store.Close()

	recs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(42), recs[0].Seed)
	assert.Equal(t, "chains: 3\n", recs[0].Scenario)
	assert.Equal(t, 3, recs[0].Summary.Chains)
	assert.Equal(t, 1, recs[0].Summary.Truncated)
}

func TestArchiveRun_SkippedWithoutBackend(t *testing.T) {
	oldKind := archiveKind
	defer func() { archiveKind = oldKind }()
	archiveKind = ""

	// No backend configured: must be a no-op rather than an error
	archiveRun(context.Background(), "", 1, sampleResults())
}
