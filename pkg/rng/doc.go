// Package rng provides deterministic random number generation for the
// tile-map collapse generator.
//
// # Overview
//
// The RNG type ensures reproducible generation by deriving stage-specific
// seeds from a master seed. This allows each pipeline stage (collapse,
// render) to have independent random sequences while maintaining overall
// determinism.
//
// # Sub-Seed Derivation
//
// Each RNG derives its seed using SHA-256:
//
//	seed_stage = H(masterSeed, stageName, configHash)
//
// where:
//   - masterSeed: Top-level seed for entire generation
//   - stageName: Pipeline stage identifier (e.g., "collapse")
//   - configHash: Hash of configuration parameters
//
// This ensures:
//  1. Same inputs always produce same RNG sequence (determinism)
//  2. Different stages get independent random sequences (isolation)
//  3. Config changes result in different sequences (sensitivity)
//
// # Usage
//
// Create an RNG per pipeline stage and seed the stage's math/rand source
// from it:
//
//	configHash := sha256.Sum256([]byte(configJSON))
//	collapseRNG := rng.NewRNG(masterSeed, "collapse", configHash[:])
//	src := rand.New(rand.NewSource(int64(collapseRNG.Uint64())))
//
// # Thread Safety
//
// RNG instances are NOT thread-safe. Each goroutine should use its own RNG
// instance. Create stage-specific RNGs before spawning goroutines and pass
// them explicitly.
package rng
