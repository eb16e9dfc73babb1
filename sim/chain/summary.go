package chain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StatSummary is the reduction of one chain statistic across a batch.
type StatSummary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	Max    float64 `json:"max" yaml:"max"`
}

// BatchSummary aggregates a completed batch. Size and Length are populated
// according to the statistic the run requested; the untracked one is nil.
type BatchSummary struct {
	Chains    int          `json:"chains" yaml:"chains"`
	Truncated int          `json:"truncated" yaml:"truncated"`
	Size      *StatSummary `json:"size,omitempty" yaml:"size,omitempty"`
	Length    *StatSummary `json:"length,omitempty" yaml:"length,omitempty"`
}

// Summarize reduces a result set to batch-level statistics. Truncated chains
// contribute their capped values; the Truncated count lets callers separate
// right-censored chains from completed ones.
func Summarize(rs *ResultSet) BatchSummary {
	bs := BatchSummary{
		Chains:    rs.CountChains(),
		Truncated: rs.CountTruncated(),
	}
	if rs.Stat == StatSize || rs.Stat == StatBoth {
		bs.Size = summarizeInts(rs.Sizes())
	}
	if rs.Stat == StatLength || rs.Stat == StatBoth {
		bs.Length = summarizeInts(rs.Lengths())
	}
	return bs
}

func summarizeInts(xs []int) *StatSummary {
	if len(xs) == 0 {
		return nil
	}
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = float64(x)
	}
	sort.Float64s(fs)
	s := &StatSummary{
		Mean:   stat.Mean(fs, nil),
		Min:    fs[0],
		Median: stat.Quantile(0.5, stat.Empirical, fs, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, fs, nil),
		Max:    fs[len(fs)-1],
	}
	// StdDev uses the n-1 divisor and is undefined for a single chain.
	if len(fs) > 1 {
		s.StdDev = stat.StdDev(fs, nil)
	}
	return s
}

// TreeStats recomputes size and length from a recorded event forest.
// It is the ground truth the counting paths must agree with.
func TreeStats(nodes []Node) (size, length int) {
	maxGen := 0
	for _, n := range nodes {
		if n.Generation > maxGen {
			maxGen = n.Generation
		}
	}
	return len(nodes), maxGen + 1
}
