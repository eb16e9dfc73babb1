package offspring

import (
	"math"
	"math/rand"

	"github.com/chainsim/chainsim/sim/chain"
)

// FamilyGeometric is the geometric offspring family on {0, 1, ...} with
// success probability prob in (0, 1]. Mean offspring number is (1-prob)/prob.
const FamilyGeometric = "geom"

func init() {
	Register(Family{
		Name:     FamilyGeometric,
		Validate: validateGeometric,
		New:      newGeometric,
		LogPMF:   geometricLogPMF,
		Mean: func(p Params) float64 {
			prob := p["prob"]
			return (1 - prob) / prob
		},
	})
}

func validateGeometric(p Params) error {
	if err := need(p, FamilyGeometric, "prob"); err != nil {
		return err
	}
	if err := allowed(p, FamilyGeometric, "prob"); err != nil {
		return err
	}
	if pr := p["prob"]; math.IsNaN(pr) || pr <= 0 || pr > 1 {
		return &chain.InvalidParameterError{
			Family: FamilyGeometric, Param: "prob", Value: pr,
			Reason: "must be in (0, 1]",
		}
	}
	return nil
}

type geometricSampler struct {
	prob float64
}

func newGeometric(p Params) Sampler { return geometricSampler{prob: p["prob"]} }

// Sample draws by inverse transform: floor(log(u) / log(1-prob)).
func (s geometricSampler) Sample(rng *rand.Rand) int {
	if s.prob == 1 {
		return 0
	}
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return int(math.Log(u) / math.Log(1-s.prob))
}

func geometricLogPMF(k int, p Params) float64 {
	if k < 0 {
		return math.Inf(-1)
	}
	prob := p["prob"]
	if prob == 1 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return math.Log(prob) + float64(k)*math.Log(1-prob)
}
