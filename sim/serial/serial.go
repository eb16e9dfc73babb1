// Package serial adapts serial-interval distributions, the delay between a
// case's event and each secondary case it produces, behind a uniform sampling
// interface. Offsets are non-negative and accumulate along ancestry paths.
//
// Parametric families resolve by name through a registry, like the offspring
// families. User-supplied samplers attach through Func and are validated at
// call time. Built-in families: gamma, lognormal, weibull, exponential, fixed.
package serial

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/chainsim/chainsim/sim/chain"
)

// Params maps parameter names to values, e.g. {"shape": 2, "rate": 0.5}.
type Params map[string]float64

// Spec names a serial-interval family with its parameters.
type Spec struct {
	Family string `yaml:"family" json:"family"`
	Params Params `yaml:"params,omitempty" json:"params,omitempty"`
}

// Sampler produces inter-event time offsets.
type Sampler interface {
	// Intervals returns exactly n non-negative offsets.
	Intervals(rng *rand.Rand, n int) ([]float64, error)
}

// Func adapts a user-supplied sampling function to the Sampler interface.
// The wrapper checks every returned sequence: wrong length, NaN, or negative
// offsets fail with chain.InvalidSamplerOutputError.
type Func func(rng *rand.Rand, n int) []float64

func (f Func) Intervals(rng *rand.Rand, n int) ([]float64, error) {
	out := f(rng, n)
	if len(out) != n {
		return nil, &chain.InvalidSamplerOutputError{
			Want: n, Got: len(out),
			Reason: "serial sampler returned the wrong number of offsets",
		}
	}
	for i, v := range out {
		if math.IsNaN(v) || v < 0 {
			return nil, &chain.InvalidSamplerOutputError{
				Want: n, Got: len(out),
				Reason: fmt.Sprintf("offset %d is %v, want non-negative", i, v),
			}
		}
	}
	return out, nil
}

// Zero is the degenerate sampler used when no serial interval is configured:
// every secondary case occurs at its infector's event time.
var Zero Sampler = zeroSampler{}

type zeroSampler struct{}

func (zeroSampler) Intervals(_ *rand.Rand, n int) ([]float64, error) {
	return make([]float64, n), nil
}

// Family describes a registered serial-interval distribution.
type Family struct {
	Name     string
	Validate func(Params) error
	New      func(Params) Sampler
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Family)
)

// Register adds a family to the registry. Reusing a name or registering an
// incomplete family panics.
func Register(f Family) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f.Name == "" || f.Validate == nil || f.New == nil {
		panic("serial: Register requires Name, Validate and New")
	}
	if _, dup := registry[f.Name]; dup {
		panic("serial: Register called twice for family " + f.Name)
	}
	registry[f.Name] = f
}

// Families returns the registered family names, sorted.
func Families() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New validates the spec and returns a sampler for it.
func New(spec Spec) (Sampler, error) {
	registryMu.RLock()
	f, ok := registry[spec.Family]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown serial family %q (registered: %s)",
			spec.Family, strings.Join(Families(), ", "))
	}
	if err := f.Validate(spec.Params); err != nil {
		return nil, err
	}
	return f.New(spec.Params), nil
}

// drawSampler wraps a continuous distribution that only yields non-negative
// values. The rng is injected per call so one sampler serves many chains.
type drawSampler struct {
	draw func(rng *rand.Rand) float64
}

func (s drawSampler) Intervals(rng *rand.Rand, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.draw(rng)
	}
	return out, nil
}

func paramErr(family, param string, value float64, reason string) error {
	return &chain.InvalidParameterError{Family: family, Param: param, Value: value, Reason: reason}
}

func positive(p Params, family, key string) error {
	v, ok := p[key]
	if !ok {
		return paramErr(family, key, math.NaN(), "required parameter missing")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return paramErr(family, key, v, "must be finite and positive")
	}
	return nil
}
