package offspring

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chainsim/chainsim/sim/chain"
)

// FamilyBorel is the Borel offspring family: the total progeny of a
// Poisson(mu) branching process with one ancestor. Support starts at 1, so a
// chain under this family never goes extinct and needs a cutoff. The optional
// censor_at parameter caps individual draws; it is required for mu > 1, where
// an uncapped walk may never terminate.
const FamilyBorel = "borel"

func init() {
	Register(Family{
		Name:     FamilyBorel,
		Validate: validateBorel,
		New:      newBorel,
		LogPMF:   borelLogPMF,
		Mean:     borelMean,
	})
}

func validateBorel(p Params) error {
	if err := need(p, FamilyBorel, "mu"); err != nil {
		return err
	}
	if err := allowed(p, FamilyBorel, "mu", "censor_at"); err != nil {
		return err
	}
	mu := p["mu"]
	if math.IsNaN(mu) || math.IsInf(mu, 0) || mu <= 0 {
		return &chain.InvalidParameterError{
			Family: FamilyBorel, Param: "mu", Value: mu,
			Reason: "must be finite and positive",
		}
	}
	if c, ok := p["censor_at"]; ok {
		if math.IsNaN(c) || c < 1 || c != math.Trunc(c) {
			return &chain.InvalidParameterError{
				Family: FamilyBorel, Param: "censor_at", Value: c,
				Reason: "must be a positive integer",
			}
		}
	} else if mu > 1 {
		return &chain.InvalidParameterError{
			Family: FamilyBorel, Param: "mu", Value: mu,
			Reason: "supercritical walk needs censor_at to terminate",
		}
	}
	return nil
}

func borelMean(p Params) float64 {
	mu := p["mu"]
	if mu >= 1 {
		return math.Inf(1)
	}
	return 1 / (1 - mu)
}

type borelSampler struct {
	mu       float64
	censorAt int
}

func newBorel(p Params) Sampler {
	return borelSampler{mu: p["mu"], censorAt: int(p["censor_at"])}
}

func (s borelSampler) Sample(rng *rand.Rand) int {
	return Borel(rng, s.mu, s.censorAt)
}

// Borel draws the total progeny of a Poisson(mu) branching process with one
// ancestor, walking the process case by case. censorAt > 0 caps the draw:
// walks reaching the cap are cut and report exactly censorAt. censorAt 0
// means no cap.
func Borel(rng *rand.Rand, mu float64, censorAt int) int {
	size, active := 1, 1
	for active > 0 {
		if censorAt > 0 && size >= censorAt {
			return censorAt
		}
		k := int(distuv.Poisson{Lambda: mu, Src: rng}.Rand())
		active += k - 1
		size += k
	}
	if censorAt > 0 && size > censorAt {
		return censorAt
	}
	return size
}

// LogDensity evaluates the log of the Borel(mu) probability mass at x.
// The Borel law lives on strictly positive integers; x below 1 is a domain
// error rather than zero mass. For mu > 1 the mass function is defective,
// summing to the extinction probability rather than 1.
func LogDensity(x int, mu float64) (float64, error) {
	if x < 1 {
		return 0, &chain.InvalidArgumentError{
			Op:     "borel log-density",
			Reason: fmt.Sprintf("x must be a positive integer, got %d", x),
		}
	}
	if math.IsNaN(mu) || mu <= 0 {
		return 0, &chain.InvalidParameterError{
			Family: FamilyBorel, Param: "mu", Value: mu,
			Reason: "must be positive",
		}
	}
	xf := float64(x)
	return -mu*xf + (xf-1)*math.Log(mu*xf) - lgamma(xf+1), nil
}

// Density is the natural-scale form of LogDensity.
func Density(x int, mu float64) (float64, error) {
	ld, err := LogDensity(x, mu)
	if err != nil {
		return 0, err
	}
	return math.Exp(ld), nil
}

// borelLogPMF adapts LogDensity to the registry signature, mapping the
// out-of-support region to zero mass.
func borelLogPMF(k int, p Params) float64 {
	if k < 1 {
		return math.Inf(-1)
	}
	ld, err := LogDensity(k, p["mu"])
	if err != nil {
		return math.Inf(-1)
	}
	return ld
}
