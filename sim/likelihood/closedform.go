package likelihood

import (
	"math"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
)

// closedForm returns the log mass function of the chain statistic's law when
// the family/statistic pair has one. The returned function maps values
// outside the support to -Inf; callers are expected to have validated the
// parameters already.
func closedForm(spec offspring.Spec, stat chain.Stat) (func(int) float64, bool) {
	switch stat {
	case chain.StatSize:
		switch spec.Family {
		case offspring.FamilyPoisson:
			return borelTannerLogPMF(spec.Params["lambda"]), true
		case offspring.FamilyNegBinom:
			size, mu := offspring.NegBinomSizeMu(spec.Params)
			return nbinomSizeLogPMF(size, mu), true
		case offspring.FamilyGammaBorel:
			size, mu := offspring.NegBinomSizeMu(spec.Params)
			return gammaBorelSizeLogPMF(size, mu), true
		}
	case chain.StatLength:
		switch spec.Family {
		case offspring.FamilyPoisson:
			return poissonLengthLogPMF(spec.Params["lambda"]), true
		case offspring.FamilyGeometric:
			return geomLengthLogPMF(spec.Params["prob"]), true
		}
	}
	return nil, false
}

// borelTannerLogPMF is the final-size law under Poisson(lambda) offspring:
// P(X=x) = exp(-lambda x) (lambda x)^(x-1) / x!. Defective above the critical
// mean, where some chains never finish.
func borelTannerLogPMF(lambda float64) func(int) float64 {
	return func(x int) float64 {
		if x < 1 {
			return math.Inf(-1)
		}
		if lambda == 0 {
			if x == 1 {
				return 0
			}
			return math.Inf(-1)
		}
		xf := float64(x)
		return (xf-1)*math.Log(lambda) - lambda*xf + (xf-2)*math.Log(xf) - lgamma(xf)
	}
}

// nbinomSizeLogPMF is the final-size law under negative binomial offspring
// with dispersion size and mean mu, by the Lagrangian expansion of its pgf.
func nbinomSizeLogPMF(size, mu float64) func(int) float64 {
	return func(x int) float64 {
		if x < 1 {
			return math.Inf(-1)
		}
		if mu == 0 {
			if x == 1 {
				return 0
			}
			return math.Inf(-1)
		}
		xf := float64(x)
		return lgamma(size*xf+xf-1) - lgamma(size*xf) - lgamma(xf+1) +
			(xf-1)*math.Log(mu/size) - (size*xf+xf-1)*math.Log(1+mu/size)
	}
}

// gammaBorelSizeLogPMF is the final-size law when the Poisson rate behind a
// Borel walk is itself Gamma(size, size/mu): a Borel-Tanner mixture. The law
// is defective whenever the gamma puts mass above the critical rate.
func gammaBorelSizeLogPMF(size, mu float64) func(int) float64 {
	beta := size / mu
	return func(x int) float64 {
		if x < 1 {
			return math.Inf(-1)
		}
		xf := float64(x)
		return lgamma(size+xf-1) - lgamma(size) - lgamma(xf+1) +
			(xf-1)*math.Log(xf) + size*math.Log(beta) - (size+xf-1)*math.Log(xf+beta)
	}
}

// poissonLengthLogPMF is the chain-length law under Poisson(lambda)
// offspring. P(L <= n) iterates the pgf from zero, F(n) = exp(lambda(F(n-1)-1)),
// and the table grows lazily with the largest point evaluated.
func poissonLengthLogPMF(lambda float64) func(int) float64 {
	cdf := []float64{0}
	return func(x int) float64 {
		if x < 1 {
			return math.Inf(-1)
		}
		for len(cdf) <= x {
			prev := cdf[len(cdf)-1]
			cdf = append(cdf, math.Exp(lambda*(prev-1)))
		}
		return math.Log(cdf[x] - cdf[x-1])
	}
}

// geomLengthLogPMF is the chain-length law under geometric offspring with
// success probability prob. The pgf is linear fractional, so its n-th iterate
// has a closed form in lam = prob/(1-prob); the lam > 1 branch is rearranged
// around decaying powers to avoid overflow for long chains.
func geomLengthLogPMF(prob float64) func(int) float64 {
	if prob == 1 {
		return func(x int) float64 {
			if x == 1 {
				return 0
			}
			return math.Inf(-1)
		}
	}
	lam := prob / (1 - prob)
	cdf := func(n int) float64 {
		if n < 1 {
			return 0
		}
		nf := float64(n)
		switch {
		case lam == 1:
			return nf / (nf + 1)
		case lam < 1:
			return lam * (math.Pow(lam, nf) - 1) / (math.Pow(lam, nf+1) - 1)
		default:
			return (1 - math.Pow(lam, -nf)) / (1 - math.Pow(lam, -(nf+1)))
		}
	}
	return func(x int) float64 {
		if x < 1 {
			return math.Inf(-1)
		}
		return math.Log(cdf(x) - cdf(x-1))
	}
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
