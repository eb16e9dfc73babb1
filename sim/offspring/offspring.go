// Package offspring adapts parametric offspring distributions, the number of
// secondary cases produced by one case, behind a uniform sampling interface.
//
// Families are resolved by name through a registry so new distributions can
// be attached without touching the simulation engine. Built-in families:
// pois, nbinom, geom, borel, gborel.
package offspring

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/chainsim/chainsim/sim/chain"
)

// Params maps parameter names to values, e.g. {"lambda": 0.5}.
type Params map[string]float64

// Spec names an offspring distribution family with its parameters.
type Spec struct {
	Family string `yaml:"family" json:"family"`
	Params Params `yaml:"params,omitempty" json:"params,omitempty"`
}

func (s Spec) String() string {
	if len(s.Params) == 0 {
		return s.Family
	}
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, s.Params[k])
	}
	return fmt.Sprintf("%s(%s)", s.Family, strings.Join(parts, ", "))
}

// Sampler draws one offspring count per call. Implementations hold validated
// parameters only and are safe to share across chains as long as each chain
// uses its own rng.
type Sampler interface {
	// Sample returns a non-negative offspring count.
	Sample(rng *rand.Rand) int
}

// Family describes a registered offspring distribution.
type Family struct {
	Name string
	// Validate checks the parameter map. Called before New.
	Validate func(Params) error
	// New constructs a sampler from validated parameters.
	New func(Params) Sampler
	// LogPMF evaluates the log mass at k, nil when no closed form exists.
	LogPMF func(k int, p Params) float64
	// Mean returns the mean offspring number, nil when it is not known.
	// Families whose chains cannot go extinct report +Inf.
	Mean func(Params) float64
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Family)
)

// Register adds a family to the registry. Registering an incomplete family
// or reusing a name panics, mirroring database/sql driver registration.
func Register(f Family) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f.Name == "" || f.Validate == nil || f.New == nil {
		panic("offspring: Register requires Name, Validate and New")
	}
	if _, dup := registry[f.Name]; dup {
		panic("offspring: Register called twice for family " + f.Name)
	}
	registry[f.Name] = f
}

func lookup(name string) (Family, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
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

// ValidateSpec checks that the spec names a registered family and that its
// parameters are within the family's domain.
func ValidateSpec(spec Spec) error {
	f, ok := lookup(spec.Family)
	if !ok {
		return fmt.Errorf("unknown offspring family %q (registered: %s)",
			spec.Family, strings.Join(Families(), ", "))
	}
	return f.Validate(spec.Params)
}

// Resolve validates the spec and returns a sampler for it.
func Resolve(spec Spec) (Sampler, error) {
	f, ok := lookup(spec.Family)
	if !ok {
		return nil, fmt.Errorf("unknown offspring family %q (registered: %s)",
			spec.Family, strings.Join(Families(), ", "))
	}
	if err := f.Validate(spec.Params); err != nil {
		return nil, err
	}
	return f.New(spec.Params), nil
}

// SampleN returns count independent draws from the spec's distribution.
func SampleN(spec Spec, count int, rng *rand.Rand) ([]int, error) {
	if count < 0 {
		return nil, &chain.InvalidArgumentError{
			Op:     "offspring.SampleN",
			Reason: fmt.Sprintf("count must be non-negative, got %d", count),
		}
	}
	s, err := Resolve(spec)
	if err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := range out {
		out[i] = s.Sample(rng)
	}
	return out, nil
}

// LogPMF evaluates the family's log mass at k. ok reports whether the family
// has a closed-form mass function.
func LogPMF(spec Spec, k int) (v float64, ok bool, err error) {
	f, found := lookup(spec.Family)
	if !found {
		return 0, false, fmt.Errorf("unknown offspring family %q (registered: %s)",
			spec.Family, strings.Join(Families(), ", "))
	}
	if err := f.Validate(spec.Params); err != nil {
		return 0, false, err
	}
	if f.LogPMF == nil {
		return 0, false, nil
	}
	return f.LogPMF(k, spec.Params), true, nil
}

// Mean returns the family's mean offspring number. ok reports whether the
// mean is known for the family.
func Mean(spec Spec) (m float64, ok bool, err error) {
	f, found := lookup(spec.Family)
	if !found {
		return 0, false, fmt.Errorf("unknown offspring family %q (registered: %s)",
			spec.Family, strings.Join(Families(), ", "))
	}
	if err := f.Validate(spec.Params); err != nil {
		return 0, false, err
	}
	if f.Mean == nil {
		return 0, false, nil
	}
	return f.Mean(spec.Params), true, nil
}

// need reports the first required key missing from p.
func need(p Params, family string, keys ...string) error {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return &chain.InvalidParameterError{
				Family: family, Param: k, Value: math.NaN(),
				Reason: "required parameter missing",
			}
		}
	}
	return nil
}

// allowed rejects parameter keys outside the family's accepted set.
func allowed(p Params, family string, keys ...string) error {
	for k := range p {
		known := false
		for _, a := range keys {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return &chain.InvalidParameterError{
				Family: family, Param: k, Value: p[k],
				Reason: fmt.Sprintf("unknown parameter (accepted: %s)", strings.Join(keys, ", ")),
			}
		}
	}
	return nil
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
