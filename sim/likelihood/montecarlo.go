package likelihood

import (
	"context"
	"math"
	"math/rand"

	"github.com/chainsim/chainsim/sim"
	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
)

// monteCarloEvaluator estimates the statistic's mass function from simulated
// chains. Chains grow under the censoring cutoff itself, so surviving counts
// estimate the body of the law and the truncated share estimates the tail
// mass P(X >= cutoff) directly.
func monteCarloEvaluator(ctx context.Context, spec offspring.Spec, stat chain.Stat, cutoff, sims int, rng *rand.Rand) (evaluator, error) {
	cfg := sim.Config{
		Chains:    sims,
		Stat:      stat,
		Seed:      rng.Int63(),
		Offspring: spec,
	}
	if stat == chain.StatLength {
		cfg.MaxLen = cutoff
	} else {
		cfg.MaxSize = cutoff
	}

	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return evaluator{}, err
	}
	rs, err := s.Run(ctx)
	if err != nil {
		return evaluator{}, err
	}

	counts := make([]int, cutoff)
	truncated := 0
	for _, r := range rs.Results {
		if r.Truncated {
			truncated++
			continue
		}
		v := r.Size
		if stat == chain.StatLength {
			v = r.Length
		}
		if v < cutoff {
			counts[v]++
		}
	}

	logN := math.Log(float64(sims))
	ev := evaluator{
		logProb: func(x int) float64 {
			if x < 1 || x >= cutoff || counts[x] == 0 {
				return math.Inf(-1)
			}
			return math.Log(float64(counts[x])) - logN
		},
		tailLog: math.Inf(-1),
	}
	if truncated > 0 {
		ev.tailLog = math.Log(float64(truncated)) - logN
	}
	return ev, nil
}
