// Package archive persists completed simulation runs so batches can be
// compared and re-examined after the process exits. Two backends share one
// interface: an in-memory map for tests and short-lived sessions, and a
// sqlite file for anything worth keeping.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainsim/chainsim/sim/chain"
)

// CurrentSchemaVersion tags encoded records so a future layout change can
// refuse payloads it no longer understands.
const CurrentSchemaVersion = 1

// ErrVersionMismatch reports a stored record written by an incompatible
// schema version.
var ErrVersionMismatch = errors.New("run record version mismatch")

// RunRecord is one archived batch: the scenario that produced it, the batch
// summary, and optionally the per-chain results.
type RunRecord struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`

	// Scenario holds the YAML scenario text the run was started from, empty
	// for runs configured by flags alone.
	Scenario string `json:"scenario,omitempty"`

	Seed    int64              `json:"seed"`
	Stat    chain.Stat         `json:"stat"`
	Summary chain.BatchSummary `json:"summary"`
	Results []chain.Result     `json:"results,omitempty"`
}

// NewRunRecord assembles a record for a completed batch, assigning it a fresh
// id and a UTC creation time.
func NewRunRecord(scenario string, seed int64, rs *chain.ResultSet) RunRecord {
	return RunRecord{
		SchemaVersion: CurrentSchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Scenario:      scenario,
		Seed:          seed,
		Stat:          rs.Stat,
		Summary:       chain.Summarize(rs),
		Results:       rs.Results,
	}
}

// EncodeRunRecord serializes a record for storage.
func EncodeRunRecord(rec RunRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRunRecord deserializes a stored record, rejecting payloads from an
// incompatible schema version.
func DecodeRunRecord(data []byte) (RunRecord, error) {
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, err
	}
	if rec.SchemaVersion != CurrentSchemaVersion {
		return RunRecord{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, rec.SchemaVersion, CurrentSchemaVersion)
	}
	return rec, nil
}
