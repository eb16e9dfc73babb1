package sim

import (
	"math"
	"math/rand"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// Same key+name produces the same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemLikelihood).Float64()
		v2 := rng2.ForSubsystem(SubsystemLikelihood).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// Drawing from one subsystem does not affect another
	rngA := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemChain(0)).Float64()
	}

	aLikelihoodFirst := rngA.ForSubsystem(SubsystemLikelihood).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	expectedFirst := fresh.ForSubsystem(SubsystemLikelihood).Float64()

	if aLikelihoodFirst != expectedFirst {
		t.Errorf("likelihood first value = %v, want %v (isolation broken)", aLikelihoodFirst, expectedFirst)
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	rng1 := rng.ForSubsystem(SubsystemLikelihood)
	rng2 := rng.ForSubsystem(SubsystemLikelihood)

	if rng1 != rng2 {
		t.Error("ForSubsystem returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

// === ChainSeed Tests ===

func TestChainSeed_DeterministicAndDistinct(t *testing.T) {
	prng := NewPartitionedRNG(NewSimulationKey(42))
	again := NewPartitionedRNG(NewSimulationKey(42))

	seen := make(map[int64]int)
	for i := 0; i < 1000; i++ {
		s := prng.ChainSeed(i)
		if s != again.ChainSeed(i) {
			t.Fatalf("chain %d: seed not deterministic", i)
		}
		if prev, dup := seen[s]; dup {
			t.Fatalf("chains %d and %d share seed %d", prev, i, s)
		}
		seen[s] = i
	}
}

func TestChainSeed_MatchesSubsystemStream(t *testing.T) {
	prng := NewPartitionedRNG(NewSimulationKey(7))

	direct := rand.New(rand.NewSource(prng.ChainSeed(3)))
	viaName := prng.ForSubsystem(SubsystemChain(3))

	for i := 0; i < 5; i++ {
		if direct.Float64() != viaName.Float64() {
			t.Fatalf("draw %d: ChainSeed stream differs from ForSubsystem stream", i)
		}
	}
}

func TestChainSeed_DoesNotCache(t *testing.T) {
	prng := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 100; i++ {
		prng.ChainSeed(i)
	}
	if len(prng.subsystems) != 0 {
		t.Errorf("ChainSeed cached %d streams, want 0", len(prng.subsystems))
	}
}

// === fnv1a64 Tests ===

func TestFnv1a64_Deterministic(t *testing.T) {
	input := "test_subsystem"
	if fnv1a64(input) != fnv1a64(input) {
		t.Errorf("fnv1a64(%q) not deterministic", input)
	}
}

func TestFnv1a64_Collision(t *testing.T) {
	// Different subsystem names should produce different hashes (spot check)
	names := []string{
		SubsystemLikelihood,
		SubsystemChain(0),
		SubsystemChain(1),
		SubsystemChain(100),
		"",
	}

	hashes := make(map[int64]string)
	for _, name := range names {
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}

// === Benchmark ===

func BenchmarkChainSeed(b *testing.B) {
	prng := NewPartitionedRNG(NewSimulationKey(42))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		prng.ChainSeed(i)
	}
}
