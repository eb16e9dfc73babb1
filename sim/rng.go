package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation batch.
// Two batches with the same SimulationKey and identical configuration MUST
// produce identical per-chain results, regardless of worker count.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemLikelihood is the RNG subsystem for likelihood estimation:
	// observation augmentation draws and simulation-fallback seeds.
	SubsystemLikelihood = "likelihood"
)

// SubsystemChain returns the subsystem name for chain N. Every chain draws
// from its own derived stream so trajectories are independent of scheduling.
func SubsystemChain(id int) string {
	return fmt.Sprintf("chain_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Derive every stream needed before fanning
// out to workers.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seedFor(name)))
	p.subsystems[name] = rng
	return rng
}

// ChainSeed returns the derived seed for chain id without caching a stream.
// Batches can span hundreds of thousands of chains; workers construct their
// own *rand.Rand from the seed.
func (p *PartitionedRNG) ChainSeed(id int) int64 {
	return p.seedFor(SubsystemChain(id))
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	return int64(p.key) ^ fnv1a64(name)
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
