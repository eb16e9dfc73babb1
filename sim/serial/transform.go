package serial

import (
	"math"
)

// LogNormalFromMeanSD converts natural-scale moments of a log-normal
// distribution to its log-scale parameters. Epidemiological literature
// reports serial intervals as mean and standard deviation in days; the
// lognormal family accepts those directly through this transform.
func LogNormalFromMeanSD(mean, sd float64) (meanlog, sdlog float64, err error) {
	if err := checkMoments(FamilyLogNormal, mean, sd); err != nil {
		return 0, 0, err
	}
	sigma2 := math.Log(1 + (sd*sd)/(mean*mean))
	return math.Log(mean) - sigma2/2, math.Sqrt(sigma2), nil
}

// GammaFromMeanSD converts natural-scale moments to gamma shape and rate.
func GammaFromMeanSD(mean, sd float64) (shape, rate float64, err error) {
	if err := checkMoments(FamilyGamma, mean, sd); err != nil {
		return 0, 0, err
	}
	return (mean / sd) * (mean / sd), mean / (sd * sd), nil
}

func checkMoments(family string, mean, sd float64) error {
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean <= 0 {
		return paramErr(family, "mean", mean, "must be finite and positive")
	}
	if math.IsNaN(sd) || math.IsInf(sd, 0) || sd <= 0 {
		return paramErr(family, "sd", sd, "must be finite and positive")
	}
	return nil
}
