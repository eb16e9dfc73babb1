package serial

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Built-in serial families. Each accepts its natural parameters; gamma and
// lognormal also accept natural-scale {mean, sd} moments, converted through
// the transforms in transform.go so literature estimates plug in directly.
const (
	FamilyGamma       = "gamma"
	FamilyLogNormal   = "lognormal"
	FamilyWeibull     = "weibull"
	FamilyExponential = "exponential"
	FamilyFixed       = "fixed"
)

func init() {
	Register(Family{Name: FamilyGamma, Validate: validateGamma, New: newGamma})
	Register(Family{Name: FamilyLogNormal, Validate: validateLogNormal, New: newLogNormal})
	Register(Family{Name: FamilyWeibull, Validate: validateWeibull, New: newWeibull})
	Register(Family{Name: FamilyExponential, Validate: validateExponential, New: newExponential})
	Register(Family{Name: FamilyFixed, Validate: validateFixed, New: newFixed})
}

func validateGamma(p Params) error {
	if _, ok := p["mean"]; ok {
		if err := positive(p, FamilyGamma, "mean"); err != nil {
			return err
		}
		return positive(p, FamilyGamma, "sd")
	}
	if err := positive(p, FamilyGamma, "shape"); err != nil {
		return err
	}
	if _, ok := p["scale"]; ok {
		return positive(p, FamilyGamma, "scale")
	}
	return positive(p, FamilyGamma, "rate")
}

func newGamma(p Params) Sampler {
	var shape, rate float64
	switch {
	case hasKey(p, "mean"):
		shape, rate, _ = GammaFromMeanSD(p["mean"], p["sd"])
	case hasKey(p, "scale"):
		shape, rate = p["shape"], 1/p["scale"]
	default:
		shape, rate = p["shape"], p["rate"]
	}
	return drawSampler{draw: func(rng *rand.Rand) float64 {
		return distuv.Gamma{Alpha: shape, Beta: rate, Src: rng}.Rand()
	}}
}

func validateLogNormal(p Params) error {
	if _, ok := p["mean"]; ok {
		if err := positive(p, FamilyLogNormal, "mean"); err != nil {
			return err
		}
		return positive(p, FamilyLogNormal, "sd")
	}
	ml, ok := p["meanlog"]
	if !ok {
		return paramErr(FamilyLogNormal, "meanlog", math.NaN(), "required parameter missing")
	}
	if math.IsNaN(ml) || math.IsInf(ml, 0) {
		return paramErr(FamilyLogNormal, "meanlog", ml, "must be finite")
	}
	return positive(p, FamilyLogNormal, "sdlog")
}

func newLogNormal(p Params) Sampler {
	var mu, sigma float64
	if hasKey(p, "mean") {
		mu, sigma, _ = LogNormalFromMeanSD(p["mean"], p["sd"])
	} else {
		mu, sigma = p["meanlog"], p["sdlog"]
	}
	return drawSampler{draw: func(rng *rand.Rand) float64 {
		return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: rng}.Rand()
	}}
}

func validateWeibull(p Params) error {
	if err := positive(p, FamilyWeibull, "shape"); err != nil {
		return err
	}
	return positive(p, FamilyWeibull, "scale")
}

func newWeibull(p Params) Sampler {
	k, lambda := p["shape"], p["scale"]
	return drawSampler{draw: func(rng *rand.Rand) float64 {
		return distuv.Weibull{K: k, Lambda: lambda, Src: rng}.Rand()
	}}
}

func validateExponential(p Params) error {
	if _, ok := p["mean"]; ok {
		return positive(p, FamilyExponential, "mean")
	}
	return positive(p, FamilyExponential, "rate")
}

func newExponential(p Params) Sampler {
	rate := p["rate"]
	if hasKey(p, "mean") {
		rate = 1 / p["mean"]
	}
	return drawSampler{draw: func(rng *rand.Rand) float64 {
		return distuv.Exponential{Rate: rate, Src: rng}.Rand()
	}}
}

func validateFixed(p Params) error {
	v, ok := p["value"]
	if !ok {
		return paramErr(FamilyFixed, "value", math.NaN(), "required parameter missing")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return paramErr(FamilyFixed, "value", v, "must be finite and non-negative")
	}
	return nil
}

func newFixed(p Params) Sampler {
	v := p["value"]
	return drawSampler{draw: func(*rand.Rand) float64 { return v }}
}

func hasKey(p Params, key string) bool {
	_, ok := p[key]
	return ok
}
