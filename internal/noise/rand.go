package noise

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source threaded through every noising decision.
// [*rand.Rand] from math/rand/v2 satisfies it; tests substitute scripted
// sources to force specific slots, operations, and candidates.
//
// A Rand is not required to be safe for concurrent use. A [Noiser] owns its
// source for the duration of a batch.
type Rand interface {
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int

	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64

	// Perm returns a uniform permutation of [0, n).
	Perm(n int) []int
}

// Compile-time assertion that the standard generator satisfies Rand.
var _ Rand = (*rand.Rand)(nil)

// NewRand returns a PCG-backed [Rand] seeded with seed. A zero seed selects a
// time-derived seed, so runs are only reproducible with an explicit value.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pick returns a uniformly chosen element of items. items must be non-empty.
func pick[T any](rng Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
