package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chainsim/chainsim/sim"
	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
	"github.com/chainsim/chainsim/sim/serial"
)

// Scenario is the file form of a simulation config, so batches can be
// versioned, reviewed, and repeated. Field names mirror the simulate flags.
type Scenario struct {
	Chains     int            `yaml:"chains"`
	Seeds      int            `yaml:"seeds,omitempty"`
	Stat       string         `yaml:"stat,omitempty"`
	MaxSize    int            `yaml:"max_size,omitempty"`
	MaxLen     int            `yaml:"max_len,omitempty"`
	MaxTime    float64        `yaml:"max_time,omitempty"`
	StartTimes []float64      `yaml:"t0,omitempty"`
	TrackTree  bool           `yaml:"tree,omitempty"`
	Workers    int            `yaml:"workers,omitempty"`
	Seed       int64          `yaml:"seed,omitempty"`
	Offspring  offspring.Spec `yaml:"offspring"`
	Serial     *serial.Spec   `yaml:"serial,omitempty"`
}

// ParseScenario decodes a YAML scenario. Unknown keys are rejected.
func ParseScenario(data []byte) (Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	return sc, nil
}

// LoadScenario reads a scenario file, returning both the parsed scenario and
// the raw text for archiving alongside the run.
func LoadScenario(path string) (Scenario, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, "", err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return Scenario{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return sc, string(data), nil
}

// Config maps the scenario onto the engine configuration. Validation happens
// when the simulator is built.
func (sc Scenario) Config() sim.Config {
	return sim.Config{
		Chains:     sc.Chains,
		Seeds:      sc.Seeds,
		Stat:       chain.Stat(sc.Stat),
		MaxSize:    sc.MaxSize,
		MaxLen:     sc.MaxLen,
		MaxTime:    sc.MaxTime,
		StartTimes: sc.StartTimes,
		TrackTree:  sc.TrackTree,
		Workers:    sc.Workers,
		Seed:       sc.Seed,
		Offspring:  sc.Offspring,
		Serial:     sc.Serial,
	}
}

// parseParams converts name=value flag pairs into distribution parameters.
func parseParams(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s=%s is not a number", k, v)
		}
		out[k] = f
	}
	return out, nil
}
