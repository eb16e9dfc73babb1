package offspring

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chainsim/chainsim/sim/chain"
)

// FamilyPoisson is the Poisson offspring family, parameter lambda >= 0.
const FamilyPoisson = "pois"

func init() {
	Register(Family{
		Name:     FamilyPoisson,
		Validate: validatePoisson,
		New:      newPoisson,
		LogPMF:   poissonLogPMF,
		Mean:     func(p Params) float64 { return p["lambda"] },
	})
}

func validatePoisson(p Params) error {
	if err := need(p, FamilyPoisson, "lambda"); err != nil {
		return err
	}
	if err := allowed(p, FamilyPoisson, "lambda"); err != nil {
		return err
	}
	if l := p["lambda"]; math.IsNaN(l) || math.IsInf(l, 0) || l < 0 {
		return &chain.InvalidParameterError{
			Family: FamilyPoisson, Param: "lambda", Value: l,
			Reason: "must be finite and non-negative",
		}
	}
	return nil
}

type poissonSampler struct {
	lambda float64
}

func newPoisson(p Params) Sampler { return poissonSampler{lambda: p["lambda"]} }

func (s poissonSampler) Sample(rng *rand.Rand) int {
	// lambda 0 degenerates to "no offspring"; distuv requires lambda > 0.
	if s.lambda == 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: s.lambda, Src: rng}.Rand())
}

func poissonLogPMF(k int, p Params) float64 {
	if k < 0 {
		return math.Inf(-1)
	}
	lambda := p["lambda"]
	if lambda == 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return distuv.Poisson{Lambda: lambda}.LogProb(float64(k))
}
