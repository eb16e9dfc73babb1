package sim

import (
	"fmt"
	"math"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
	"github.com/chainsim/chainsim/sim/serial"
)

// Config parameterizes one simulation batch: independent transmission chains
// grown under a shared offspring and serial-interval specification.
//
// Cutoff fields use the zero value to mean "no cutoff". A finite MaxTime
// requires a serial-interval source, otherwise event times never advance and
// the cutoff would be meaningless.
type Config struct {
	Chains int        // number of independent chains (must be > 0)
	Seeds  int        // index cases per chain at generation 0 (default 1)
	Stat   chain.Stat // reported statistic: size, length, both (default size)

	MaxSize    int       // stop a chain at this many cases (0 = no cutoff)
	MaxLen     int       // stop a chain at this many generations (0 = no cutoff)
	MaxTime    float64   // drop cases whose event time exceeds this (0 = no cutoff)
	StartTimes []float64 // per-chain initial times: none, one shared, or one per chain

	TrackTree bool  // retain the full event forest of every chain
	Workers   int   // parallel chain workers (< 2 = sequential)
	Seed      int64 // master seed; per-chain streams derive from it

	Offspring  offspring.Spec // offspring distribution family
	Serial     *serial.Spec   // parametric serial-interval family (optional)
	SerialFunc serial.Func    // user-supplied interval sampler, exclusive with Serial
}

// normalize fills defaulted fields in place.
func (c *Config) normalize() {
	if c.Seeds == 0 {
		c.Seeds = 1
	}
	if c.Stat == "" {
		c.Stat = chain.StatSize
	}
}

// Validate checks batch shape and cutoff consistency. Sampler parameters are
// validated separately when New resolves them.
func (c *Config) Validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("chains must be at least 1, got %d", c.Chains)
	}
	if c.Seeds < 1 {
		return fmt.Errorf("seeds must be at least 1, got %d", c.Seeds)
	}
	if _, err := chain.ParseStat(string(c.Stat)); err != nil {
		return err
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("max size must be non-negative, got %d", c.MaxSize)
	}
	if c.MaxSize > 0 && c.MaxSize < c.Seeds {
		return fmt.Errorf("max size %d is below the %d index cases", c.MaxSize, c.Seeds)
	}
	if c.MaxLen < 0 {
		return fmt.Errorf("max length must be non-negative, got %d", c.MaxLen)
	}
	if math.IsNaN(c.MaxTime) || math.IsInf(c.MaxTime, 0) || c.MaxTime < 0 {
		return fmt.Errorf("max time must be finite and non-negative, got %v", c.MaxTime)
	}
	if c.MaxTime > 0 && c.Serial == nil && c.SerialFunc == nil {
		return fmt.Errorf("a time cutoff needs a serial-interval source to advance event times")
	}
	if c.Serial != nil && c.SerialFunc != nil {
		return fmt.Errorf("serial spec and serial func are mutually exclusive")
	}
	switch len(c.StartTimes) {
	case 0, 1, c.Chains:
	default:
		return fmt.Errorf("start times must hold 0, 1, or %d values, got %d", c.Chains, len(c.StartTimes))
	}
	for i, t0 := range c.StartTimes {
		if math.IsNaN(t0) || math.IsInf(t0, 0) {
			return fmt.Errorf("start time %d is %v, want finite", i, t0)
		}
		if c.MaxTime > 0 && t0 > c.MaxTime {
			return fmt.Errorf("start time %d (%v) exceeds max time %v", i, t0, c.MaxTime)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// hasCutoff reports whether anything bounds chain growth.
func (c *Config) hasCutoff() bool {
	return c.MaxSize > 0 || c.MaxLen > 0 || c.MaxTime > 0
}

// startTime returns chain id's initial event time.
func (c *Config) startTime(id int) float64 {
	switch len(c.StartTimes) {
	case 0:
		return 0
	case 1:
		return c.StartTimes[0]
	default:
		return c.StartTimes[id]
	}
}
