// sim/simulator.go
package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/offspring"
	"github.com/chainsim/chainsim/sim/serial"
)

// Simulator grows transmission chains generation by generation under a fixed
// offspring and serial-interval specification. A Simulator is immutable after
// construction and safe for concurrent use: all randomness flows through the
// per-chain rng passed into each call.
type Simulator struct {
	cfg Config
	off offspring.Sampler
	ser serial.Sampler // nil on the counts-only fast path
}

// NewSimulator validates the configuration, resolves its samplers, and checks
// that growth is bounded. Every configuration error surfaces here, before any
// chain is simulated.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	off, err := offspring.Resolve(cfg.Offspring)
	if err != nil {
		return nil, err
	}

	// resolve the serial source up front even if the fast path won't use it,
	// so a bad spec fails before work starts
	var ser serial.Sampler
	if cfg.SerialFunc != nil {
		ser = cfg.SerialFunc
	} else if cfg.Serial != nil {
		ser, err = serial.New(*cfg.Serial)
		if err != nil {
			return nil, err
		}
	}

	if !cfg.hasCutoff() {
		mean, known, err := offspring.Mean(cfg.Offspring)
		if err != nil {
			return nil, err
		}
		switch {
		case known && mean >= 1:
			return nil, fmt.Errorf(
				"offspring family %s has mean %.4g >= 1 and no cutoff is set; chains may never go extinct (set max size, max length, or max time)",
				cfg.Offspring, mean)
		case !known:
			logrus.Warnf("offspring family %s has no known mean; without a cutoff a supercritical chain will not terminate", cfg.Offspring)
		}
	}

	needTiming := cfg.TrackTree || cfg.MaxTime > 0
	if needTiming && ser == nil {
		ser = serial.Zero
	}
	if !needTiming {
		// counts-only fast path: skip interval sampling entirely
		ser = nil
	}

	return &Simulator{cfg: cfg, off: off, ser: ser}, nil
}

// Config returns a copy of the simulator's normalized configuration.
func (s *Simulator) Config() Config { return s.cfg }

// simulateChain grows one chain on its own rng stream.
func (s *Simulator) simulateChain(chainID int, rng *rand.Rand) (chain.Result, error) {
	if s.ser == nil {
		return s.simulateCounts(chainID, rng), nil
	}
	return s.simulateTimed(chainID, rng)
}

// simulateCounts tracks per-generation counts only. It is distribution-exact
// with the timed path for size and length; it just never materializes nodes.
func (s *Simulator) simulateCounts(chainID int, rng *rand.Rand) chain.Result {
	size := s.cfg.Seeds
	truncated := false
	if s.cfg.MaxSize > 0 && size >= s.cfg.MaxSize {
		return chain.Result{ChainID: chainID, Size: s.cfg.MaxSize, Length: 1, Truncated: true}
	}

	frontier := s.cfg.Seeds
	gen := 0
	maxGen := 0
	for frontier > 0 {
		if s.cfg.MaxLen > 0 && gen+1 >= s.cfg.MaxLen {
			truncated = true
			break
		}
		next := 0
		for i := 0; i < frontier; i++ {
			k := s.off.Sample(rng)
			if k == 0 {
				continue
			}
			next += k
			size += k
			maxGen = gen + 1
			if s.cfg.MaxSize > 0 && size >= s.cfg.MaxSize {
				size = s.cfg.MaxSize
				truncated = true
				break
			}
		}
		if truncated {
			break
		}
		frontier = next
		gen++
	}
	return chain.Result{ChainID: chainID, Size: size, Length: maxGen + 1, Truncated: truncated}
}

// simulateTimed materializes the event forest, assigning each case a time
// offset from its infector. Cases past the time cutoff are dropped and never
// reproduce.
func (s *Simulator) simulateTimed(chainID int, rng *rand.Rand) (chain.Result, error) {
	t0 := s.cfg.startTime(chainID)
	nodes := make([]chain.Node, 0, 4*s.cfg.Seeds)
	truncated := false
	timeCut := false

	for i := 0; i < s.cfg.Seeds; i++ {
		nodes = append(nodes, chain.Node{ID: i, ParentID: chain.NoParent, Generation: 0, Time: t0})
		if s.cfg.MaxSize > 0 && len(nodes) >= s.cfg.MaxSize {
			truncated = true
			break
		}
	}

	genStart, genEnd := 0, len(nodes)
	for genStart < genEnd && !truncated {
		curGen := nodes[genStart].Generation
		if s.cfg.MaxLen > 0 && curGen+1 >= s.cfg.MaxLen {
			truncated = true
			break
		}
		for i := genStart; i < genEnd && !truncated; i++ {
			parent := nodes[i]
			k := s.off.Sample(rng)
			if k == 0 {
				continue
			}
			offsets, err := s.ser.Intervals(rng, k)
			if err != nil {
				return chain.Result{}, fmt.Errorf("chain %d: %w", chainID, err)
			}
			for _, d := range offsets {
				t := parent.Time + d
				if s.cfg.MaxTime > 0 && t > s.cfg.MaxTime {
					timeCut = true
					continue
				}
				nodes = append(nodes, chain.Node{
					ID:         len(nodes),
					ParentID:   parent.ID,
					Generation: parent.Generation + 1,
					Time:       t,
				})
				if s.cfg.MaxSize > 0 && len(nodes) >= s.cfg.MaxSize {
					truncated = true
					break
				}
			}
		}
		genStart, genEnd = genEnd, len(nodes)
	}

	// nodes are generation-ordered, so the last one carries the max generation
	res := chain.Result{
		ChainID:   chainID,
		Size:      len(nodes),
		Length:    nodes[len(nodes)-1].Generation + 1,
		Truncated: truncated || timeCut,
	}
	if s.cfg.TrackTree {
		res.Nodes = nodes
	}
	return res, nil
}
