// Package chain holds the pure data types produced by a simulation run:
// realized infection events, per-chain outcomes, and their reductions.
// This package has no dependencies on sim/ or the sampler adapters; it stores
// and summarizes data only.
package chain

import "fmt"

// Stat selects which chain statistic a run reports.
type Stat string

const (
	// StatSize is the total number of cases in a chain, index cases included.
	StatSize Stat = "size"
	// StatLength is the number of generations a chain spans; a chain that
	// dies out with its index cases has length 1.
	StatLength Stat = "length"
	// StatBoth reports size and length together.
	StatBoth Stat = "both"
)

// validStats is the registry of accepted statistic names.
var validStats = map[Stat]bool{
	StatSize:   true,
	StatLength: true,
	StatBoth:   true,
}

// ParseStat validates a statistic name.
func ParseStat(s string) (Stat, error) {
	if validStats[Stat(s)] {
		return Stat(s), nil
	}
	return "", fmt.Errorf("unknown statistic %q (valid: size, length, both)", s)
}

// NoParent marks index cases, which have no infector.
const NoParent = -1

// Node is one realized infection event. Nodes form a forest per chain:
// ParentID is an index into the owning chain's node slice, not an ownership
// edge. Nodes are immutable once recorded.
type Node struct {
	ID         int     `json:"id"`         // position within the chain, 0-based
	ParentID   int     `json:"parent_id"`  // position of the infector, NoParent for index cases
	Generation int     `json:"generation"` // depth level, index cases are generation 0
	Time       float64 `json:"time"`       // event time, offsets accumulate along ancestry
}

// Result is the outcome of growing a single chain.
type Result struct {
	ChainID int `json:"chain_id"`
	// Size counts every case in the chain, index cases included.
	Size int `json:"size"`
	// Length is the number of generations spanned: max generation + 1.
	Length int `json:"length"`
	// Truncated is set when a size, length, or time cutoff stopped the chain
	// before natural extinction.
	Truncated bool `json:"truncated"`
	// Nodes is the full event forest, nil unless the run tracked trees.
	Nodes []Node `json:"nodes,omitempty"`
}

// ResultSet collects the outcomes of one simulation batch, ordered by chain id.
type ResultSet struct {
	Stat    Stat     `json:"stat"`
	Results []Result `json:"results"`
}

// CountChains returns the number of chains in the set.
func (rs *ResultSet) CountChains() int { return len(rs.Results) }

// Sizes returns the final size of every chain, in chain order.
func (rs *ResultSet) Sizes() []int {
	out := make([]int, len(rs.Results))
	for i, r := range rs.Results {
		out[i] = r.Size
	}
	return out
}

// Lengths returns the generation span of every chain, in chain order.
func (rs *ResultSet) Lengths() []int {
	out := make([]int, len(rs.Results))
	for i, r := range rs.Results {
		out[i] = r.Length
	}
	return out
}

// CountTruncated returns how many chains hit a cutoff before extinction.
func (rs *ResultSet) CountTruncated() int {
	n := 0
	for _, r := range rs.Results {
		if r.Truncated {
			n++
		}
	}
	return n
}
