// Package random defines the source of randomness used for percentage
// sampling and fault parameters, so tests can substitute deterministic
// sequences.
package random

import "math/rand/v2"

// Source produces uniformly distributed values.
// Implementations must be safe for concurrent use.
type Source interface {
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int

	// Int64N returns a value in [0, n). n must be > 0.
	Int64N(n int64) int64

	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// Default returns a Source backed by the top-level math/rand/v2 functions,
// which are safe for concurrent use and seeded by the runtime.
func Default() Source {
	return globalSource{}
}

type globalSource struct{}

func (globalSource) IntN(n int) int       { return rand.IntN(n) }
func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }
func (globalSource) Float64() float64     { return rand.Float64() }
