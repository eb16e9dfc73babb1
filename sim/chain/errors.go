package chain

import (
	"fmt"
	"math"
)

// InvalidParameterError reports a distribution parameter outside its domain,
// or a missing required parameter. Raised at configuration time, before any
// simulation work begins.
type InvalidParameterError struct {
	Family string
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Family, e.Reason)
	}
	if math.IsNaN(e.Value) {
		return fmt.Sprintf("%s: parameter %q: %s", e.Family, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: parameter %q = %v: %s", e.Family, e.Param, e.Value, e.Reason)
}

// InvalidArgumentError reports a call with an argument outside the
// operation's domain, such as a Borel density evaluated below 1.
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// InvalidSamplerOutputError reports a user-supplied sampler that returned a
// malformed sequence: wrong element count, a negative offset, or NaN.
type InvalidSamplerOutputError struct {
	Want   int
	Got    int
	Reason string
}

func (e *InvalidSamplerOutputError) Error() string {
	return fmt.Sprintf("sampler output invalid (want %d values, got %d): %s", e.Want, e.Got, e.Reason)
}

// UnsupportedStatisticError reports a statistic/family pair for which no
// likelihood path exists, closed form or otherwise.
type UnsupportedStatisticError struct {
	Family string
	Stat   Stat
	Reason string
}

func (e *UnsupportedStatisticError) Error() string {
	return fmt.Sprintf("statistic %q unsupported for family %q: %s", e.Stat, e.Family, e.Reason)
}
