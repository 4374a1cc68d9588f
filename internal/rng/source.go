// Package rng provides the deterministic pseudo-random stream that drives
// every simulated price path.
package rng

import "math"

// LCG parameters (Numerical Recipes). The modulus is 2^32, which uint32
// arithmetic gives for free.
const (
	multiplier uint32 = 1664525
	increment  uint32 = 1013904223
	modulus           = 1 << 32

	// minUniform guards the Box–Muller log against log(0).
	minUniform = 1e-10
)

// Source is a seeded linear congruential generator. The same seed always
// yields the same infinite sequence. A Source is owned by a single caller
// and is not safe for concurrent use.
type Source struct {
	seed uint32
}

// New creates a Source seeded with abs(seed) mod 2^32.
func New(seed int64) *Source {
	return &Source{seed: normalize(seed)}
}

// Next advances the generator and returns a uniform value in [0, 1).
func (s *Source) Next() float64 {
	s.seed = multiplier*s.seed + increment
	return float64(s.seed) / modulus
}

// NextGaussian returns one standard normal sample using the Box–Muller
// transform. Each call draws fresh uniforms and the paired sample is
// discarded; caching it would change every seeded sequence.
func (s *Source) NextGaussian() float64 {
	u1 := s.Next()
	u2 := s.Next()
	for u1 <= minUniform {
		u1 = s.Next()
	}
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}

// Reset reinitialises the generator. Afterwards the stream is identical to
// that of New(seed).
func (s *Source) Reset(seed int64) {
	s.seed = normalize(seed)
}

// Seed returns the current internal state.
func (s *Source) Seed() uint32 {
	return s.seed
}

func normalize(seed int64) uint32 {
	var abs uint64
	if seed < 0 {
		// -(seed+1)+1 avoids overflowing on math.MinInt64.
		abs = uint64(-(seed + 1)) + 1
	} else {
		abs = uint64(seed)
	}
	return uint32(abs % modulus)
}
