// Package likelihood evaluates the log-likelihood of observed transmission
// chain sizes or lengths under a fixed offspring family, for fitting branching
// process models to outbreak data.
//
// Five family/statistic pairs have closed-form laws:
//
//	pois/size      Borel-Tanner
//	nbinom/size    Lagrangian negative binomial
//	gborel/size    gamma-mixed Borel
//	pois/length    iterated Poisson pgf
//	geom/length    linear-fractional pgf iterate
//
// Any other pair is estimated from chains simulated by the engine when
// Options.MonteCarlo is set, and fails with UnsupportedStatisticError when it
// is not. A finite Options.Cutoff right-censors the data: observations at or
// above it contribute the log tail mass P(X >= cutoff) instead of a point
// mass.
package likelihood

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
)

const opChainLL = "chain log-likelihood"

// MonteCarloOptions sizes the simulation behind the empirical fallback.
type MonteCarloOptions struct {
	// Sims is the number of chains simulated to estimate the statistic's
	// mass function.
	Sims int
}

// Options control censoring, partial observation, and the simulation
// fallback. The zero value evaluates fully observed data against closed
// forms only.
type Options struct {
	// Cutoff right-censors observations: values at or above it carry the
	// tail mass P(X >= Cutoff). 0 means no censoring.
	Cutoff int

	// ObsProb is the probability that any single case is observed. Values
	// below 1 augment each observed size with draws of the missed cases.
	// 0 is treated as fully observed.
	ObsProb float64

	// NObsSamples is the number of augmentation replicates when ObsProb < 1.
	NObsSamples int

	// Rand drives augmentation draws and Monte Carlo seeding. Required for
	// either; there is no implicit global source.
	Rand *rand.Rand

	// MonteCarlo enables the empirical fallback for family/statistic pairs
	// without a closed form.
	MonteCarlo *MonteCarloOptions
}

// ChainLogLik is the total log-likelihood of the observed statistics,
// averaged over augmentation replicates when ObsProb < 1.
func ChainLogLik(ctx context.Context, obs []int, spec offspring.Spec, stat chain.Stat, opts Options) (float64, error) {
	lls, err := ReplicateLogLiks(ctx, obs, spec, stat, opts)
	if err != nil {
		return 0, err
	}
	return floats.Sum(lls) / float64(len(lls)), nil
}

// ReplicateLogLiks returns one total log-likelihood per augmentation
// replicate. Fully observed data yields exactly one value.
func ReplicateLogLiks(ctx context.Context, obs []int, spec offspring.Spec, stat chain.Stat, opts Options) ([]float64, error) {
	if len(obs) == 0 {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "no observations"}
	}
	for _, x := range obs {
		if x < 1 {
			return nil, &chain.InvalidArgumentError{
				Op:     opChainLL,
				Reason: fmt.Sprintf("observation %d out of range; every chain has at least one case", x),
			}
		}
	}
	if stat != chain.StatSize && stat != chain.StatLength {
		return nil, &chain.UnsupportedStatisticError{
			Family: spec.Family, Stat: stat,
			Reason: "likelihood needs a single observed statistic",
		}
	}
	if err := offspring.ValidateSpec(spec); err != nil {
		return nil, err
	}
	if opts.Cutoff < 0 {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "cutoff cannot be negative"}
	}
	obsProb := opts.ObsProb
	if obsProb == 0 {
		obsProb = 1
	}
	if math.IsNaN(obsProb) || obsProb < 0 || obsProb > 1 {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "observation probability must be in (0, 1]"}
	}

	replicates, err := observationReplicates(obs, stat, obsProb, opts)
	if err != nil {
		return nil, err
	}

	if logPMF, ok := closedForm(spec, stat); ok {
		ev := closedFormEvaluator(logPMF, opts.Cutoff, anyCensored(replicates, opts.Cutoff))
		return replicateSums(replicates, ev, opts.Cutoff), nil
	}

	if opts.MonteCarlo == nil || opts.MonteCarlo.Sims < 1 {
		return nil, &chain.UnsupportedStatisticError{
			Family: spec.Family, Stat: stat,
			Reason: "no closed form; set MonteCarlo to estimate one by simulation",
		}
	}
	if opts.Rand == nil {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "Monte Carlo estimation needs an explicit random source"}
	}
	// without a censoring cutoff the simulation still needs a bound; one past
	// the largest observation keeps every evaluated point inside the body
	simCutoff := opts.Cutoff
	if simCutoff == 0 {
		simCutoff = maxObservation(replicates) + 1
	}
	logrus.Debugf("no closed form for %s %s likelihood; estimating from %d simulated chains",
		spec.Family, stat, opts.MonteCarlo.Sims)
	ev, err := monteCarloEvaluator(ctx, spec, stat, simCutoff, opts.MonteCarlo.Sims, opts.Rand)
	if err != nil {
		return nil, err
	}
	return replicateSums(replicates, ev, opts.Cutoff), nil
}

// evaluator pairs a point log-mass function with the precomputed log tail
// mass carried by censored observations.
type evaluator struct {
	logProb func(x int) float64
	tailLog float64
}

func closedFormEvaluator(logPMF func(int) float64, cutoff int, needTail bool) evaluator {
	ev := evaluator{logProb: logPMF, tailLog: math.Inf(-1)}
	if !needTail || cutoff == 0 {
		return ev
	}
	if cutoff == 1 {
		ev.tailLog = 0 // everything is censored
		return ev
	}
	body := make([]float64, 0, cutoff-1)
	for k := 1; k < cutoff; k++ {
		body = append(body, logPMF(k))
	}
	ev.tailLog = logComplement(floats.LogSumExp(body))
	return ev
}

// logComplement computes log(1 - exp(logP)), mapping rounding overshoot past
// probability one to zero mass.
func logComplement(logP float64) float64 {
	if logP >= 0 {
		return math.Inf(-1)
	}
	return math.Log1p(-math.Exp(logP))
}

func replicateSums(replicates [][]int, ev evaluator, cutoff int) []float64 {
	lls := make([]float64, len(replicates))
	for i, rep := range replicates {
		ll := 0.0
		for _, x := range rep {
			if cutoff > 0 && x >= cutoff {
				ll += ev.tailLog
			} else {
				ll += ev.logProb(x)
			}
		}
		lls[i] = ll
	}
	return lls
}

func anyCensored(replicates [][]int, cutoff int) bool {
	if cutoff == 0 {
		return false
	}
	for _, rep := range replicates {
		for _, x := range rep {
			if x >= cutoff {
				return true
			}
		}
	}
	return false
}

func maxObservation(replicates [][]int) int {
	m := 0
	for _, rep := range replicates {
		for _, x := range rep {
			if x > m {
				m = x
			}
		}
	}
	return m
}

// observationReplicates expands the observed data into one censored replicate
// per augmentation draw. Fully observed data passes through as a single
// replicate.
func observationReplicates(obs []int, stat chain.Stat, obsProb float64, opts Options) ([][]int, error) {
	if obsProb == 1 {
		return [][]int{censored(obs, opts.Cutoff)}, nil
	}
	if stat != chain.StatSize {
		return nil, &chain.UnsupportedStatisticError{
			Stat:   stat,
			Reason: "observation-probability augmentation is only defined for chain sizes",
		}
	}
	if opts.NObsSamples < 1 {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "partial observation needs at least one augmentation replicate"}
	}
	if opts.Rand == nil {
		return nil, &chain.InvalidArgumentError{Op: opChainLL, Reason: "partial observation needs an explicit random source"}
	}
	replicates := make([][]int, opts.NObsSamples)
	for r := range replicates {
		rep := make([]int, len(obs))
		for i, x := range obs {
			rep[i] = trueSize(opts.Rand, x, obsProb)
		}
		replicates[r] = censored(rep, opts.Cutoff)
	}
	return replicates, nil
}

// trueSize draws a chain's unobserved true size given its observed size,
// assuming each case is seen independently with probability p. The missed
// count is negative binomial with observed+1 successes, drawn as a
// gamma-mixed Poisson.
func trueSize(rng *rand.Rand, observed int, p float64) int {
	lam := distuv.Gamma{Alpha: float64(observed + 1), Beta: p / (1 - p), Src: rng}.Rand()
	if lam <= 0 {
		return observed
	}
	return observed + int(distuv.Poisson{Lambda: lam, Src: rng}.Rand())
}

func censored(xs []int, cutoff int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		if cutoff > 0 && x > cutoff {
			x = cutoff
		}
		out[i] = x
	}
	return out
}
