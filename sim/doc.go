// Package sim provides the branching-process engine that grows transmission
// chains from parametric offspring and serial-interval distributions.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - config.go: batch configuration, cutoff semantics, and validation
//   - simulator.go: per-chain growth, generation by generation, counts-only
//     fast path and tree-tracking timed path
//   - batch.go: batch execution, per-chain seed derivation, worker pool
//
// # Architecture
//
// The sim package holds the engine; the statistical surface lives in
// sub-packages:
//   - sim/chain/: pure result data types, summaries, CSV rendering
//   - sim/offspring/: offspring distribution families (pois, nbinom, geom,
//     borel, gborel) behind a name-keyed registry
//   - sim/serial/: serial-interval families (gamma, lognormal, weibull,
//     exponential, fixed) plus user-supplied sampler support
//   - sim/likelihood/: closed-form and simulated likelihoods of observed
//     chain statistics
//   - sim/archive/: persistence of completed runs (in-memory, sqlite)
//
// Distribution families register themselves via init() functions, so linking
// a package that calls offspring.Register or serial.Register extends the
// engine without modifying it.
//
// # Determinism
//
// Every chain draws from its own rng stream, derived from the master seed by
// PartitionedRNG before execution fans out. Batch results for a given seed
// and configuration are identical at any worker count.
package sim
