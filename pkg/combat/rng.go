package combat

import "math/rand/v2"

// RNG is the roll source for a combat session. Injected so tests can
// script exact crit/miss/variance sequences.
type RNG interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// IntN returns a uniform draw in [0, n).
	IntN(n int) int
}

type systemRNG struct{}

func (systemRNG) Float64() float64 { return rand.Float64() }
func (systemRNG) IntN(n int) int   { return rand.IntN(n) }

// NewRNG returns the default roll source backed by math/rand/v2.
func NewRNG() RNG {
	return systemRNG{}
}
