package offspring

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chainsim/chainsim/sim/chain"
)

// FamilyGammaBorel is the gamma-mixed Borel offspring family: each draw
// realizes lambda ~ Gamma(dispersion, dispersion/mean) and then walks a
// Borel(lambda) progeny count. Equivalently, the final size of a chain with
// negative binomial offspring. It accepts the nbinom parameterizations plus a
// required censor_at: the mixing draw can exceed the critical value 1, so an
// uncapped walk may never terminate.
const FamilyGammaBorel = "gborel"

func init() {
	Register(Family{
		Name:     FamilyGammaBorel,
		Validate: validateGammaBorel,
		New:      newGammaBorel,
		LogPMF:   gammaBorelLogPMF,
		// every positive gamma tail mass above 1 makes the mean diverge
		Mean: func(Params) float64 { return math.Inf(1) },
	})
}

// withoutCensorAt strips the censor_at key so the nbinom shape checks and
// normalization apply to the mixing parameters alone.
func withoutCensorAt(p Params) Params {
	rest := make(Params, len(p))
	for k, v := range p {
		if k == "censor_at" {
			continue
		}
		rest[k] = v
	}
	return rest
}

func validateGammaBorel(p Params) error {
	rest := withoutCensorAt(p)
	if err := validateNegBinomShape(rest, FamilyGammaBorel); err != nil {
		return err
	}
	_, mu := NegBinomSizeMu(rest)
	if mu <= 0 {
		return &chain.InvalidParameterError{
			Family: FamilyGammaBorel, Param: "mean", Value: mu,
			Reason: "must be positive",
		}
	}
	c, ok := p["censor_at"]
	if !ok {
		return &chain.InvalidParameterError{
			Family: FamilyGammaBorel, Param: "censor_at", Value: math.NaN(),
			Reason: "required parameter missing (walk may never terminate without it)",
		}
	}
	if math.IsNaN(c) || c < 1 || c != math.Trunc(c) {
		return &chain.InvalidParameterError{
			Family: FamilyGammaBorel, Param: "censor_at", Value: c,
			Reason: "must be a positive integer",
		}
	}
	return nil
}

type gammaBorelSampler struct {
	size, mu float64
	censorAt int
}

func newGammaBorel(p Params) Sampler {
	size, mu := NegBinomSizeMu(withoutCensorAt(p))
	return gammaBorelSampler{size: size, mu: mu, censorAt: int(p["censor_at"])}
}

func (s gammaBorelSampler) Sample(rng *rand.Rand) int {
	lambda := distuv.Gamma{Alpha: s.size, Beta: s.size / s.mu, Src: rng}.Rand()
	// lambda underflows to 0 for tiny shapes; the progeny is the ancestor alone
	if lambda <= 0 {
		return 1
	}
	return Borel(rng, lambda, s.censorAt)
}

// gammaBorelLogPMF is the gamma-Borel mass, the Borel density integrated
// against the Gamma(size, size/mu) mixing law.
func gammaBorelLogPMF(k int, p Params) float64 {
	if k < 1 {
		return math.Inf(-1)
	}
	size, mu := NegBinomSizeMu(withoutCensorAt(p))
	kf := float64(k)
	beta := size / mu
	return lgamma(size+kf-1) - lgamma(size) - lgamma(kf+1) +
		(kf-1)*math.Log(kf) + size*math.Log(beta) - (size+kf-1)*math.Log(kf+beta)
}
