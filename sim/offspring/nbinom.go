package offspring

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chainsim/chainsim/sim/chain"
)

// FamilyNegBinom is the negative binomial offspring family, the standard
// model for superspreading. It accepts two parameterizations:
//
//	{mean, dispersion}: mean offspring number and dispersion k
//	{size, prob}:       classical size/probability form
//
// Low dispersion concentrates transmission in few cases.
const FamilyNegBinom = "nbinom"

func init() {
	Register(Family{
		Name:     FamilyNegBinom,
		Validate: validateNegBinom,
		New:      newNegBinom,
		LogPMF:   negBinomLogPMF,
		Mean: func(p Params) float64 {
			_, mu := NegBinomSizeMu(p)
			return mu
		},
	})
}

// NegBinomSizeMu normalizes either accepted parameterization to the
// (size, mu) form used by the closed-form likelihoods. Call only after the
// parameters validated.
func NegBinomSizeMu(p Params) (size, mu float64) {
	if v, ok := p["size"]; ok {
		size = v
	} else {
		size = p["dispersion"]
	}
	if m, ok := p["mean"]; ok {
		mu = m
	} else {
		prob := p["prob"]
		mu = size * (1 - prob) / prob
	}
	return size, mu
}

func validateNegBinom(p Params) error {
	return validateNegBinomShape(p, FamilyNegBinom)
}

// validateNegBinomShape checks the dual parameterization shared by the
// nbinom and gborel families, attributing errors to the caller's family.
func validateNegBinomShape(p Params, family string) error {
	_, hasMean := p["mean"]
	_, hasDisp := p["dispersion"]
	_, hasSize := p["size"]
	_, hasProb := p["prob"]

	switch {
	case hasMean && hasDisp && !hasSize && !hasProb:
		if err := allowed(p, family, "mean", "dispersion"); err != nil {
			return err
		}
		if m := p["mean"]; math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
			return &chain.InvalidParameterError{
				Family: family, Param: "mean", Value: m,
				Reason: "must be finite and non-negative",
			}
		}
		if d := p["dispersion"]; math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return &chain.InvalidParameterError{
				Family: family, Param: "dispersion", Value: d,
				Reason: "must be finite and positive",
			}
		}
		return nil
	case hasSize && hasProb && !hasMean && !hasDisp:
		if err := allowed(p, family, "size", "prob"); err != nil {
			return err
		}
		if s := p["size"]; math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return &chain.InvalidParameterError{
				Family: family, Param: "size", Value: s,
				Reason: "must be finite and positive",
			}
		}
		if pr := p["prob"]; math.IsNaN(pr) || pr <= 0 || pr > 1 {
			return &chain.InvalidParameterError{
				Family: family, Param: "prob", Value: pr,
				Reason: "must be in (0, 1]",
			}
		}
		return nil
	default:
		return &chain.InvalidParameterError{
			Family: family, Value: math.NaN(),
			Reason: "parameterize with {mean, dispersion} or {size, prob}",
		}
	}
}

type negBinomSampler struct {
	size, mu float64
}

func newNegBinom(p Params) Sampler {
	size, mu := NegBinomSizeMu(p)
	return negBinomSampler{size: size, mu: mu}
}

// Sample draws via the gamma-Poisson mixture: lambda ~ Gamma(size, size/mu),
// count ~ Poisson(lambda).
func (s negBinomSampler) Sample(rng *rand.Rand) int {
	if s.mu == 0 {
		return 0
	}
	lambda := distuv.Gamma{Alpha: s.size, Beta: s.size / s.mu, Src: rng}.Rand()
	// gamma draws underflow to 0 for very small shapes
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
}

func negBinomLogPMF(k int, p Params) float64 {
	if k < 0 {
		return math.Inf(-1)
	}
	size, mu := NegBinomSizeMu(p)
	if mu == 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	kf := float64(k)
	prob := size / (size + mu)
	return lgamma(kf+size) - lgamma(size) - lgamma(kf+1) +
		size*math.Log(prob) + kf*math.Log(1-prob)
}
