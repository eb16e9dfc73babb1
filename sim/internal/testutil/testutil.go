// Package testutil provides shared assertion helpers for the chainsim test
// packages. Statistical tests compare sampled moments against analytical
// targets, so relative-tolerance comparison is the common idiom.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// SampleMeanInt averages n draws produced by sample.
func SampleMeanInt(n int, sample func() int) float64 {
	sum := 0
	for i := 0; i < n; i++ {
		sum += sample()
	}
	return float64(sum) / float64(n)
}
