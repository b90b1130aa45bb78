package engine

import "math/rand/v2"

// Rand is the source of randomness used for shuffles and random choices.
// *math/rand/v2.Rand satisfies it, as does XorShift.
type Rand interface {
	IntN(n int) int
}

// XorShift is a small seedable generator for reproducible games and tests.
type XorShift struct {
	state uint64
}

// NewXorShift returns a generator seeded with seed. A zero seed is replaced
// by 1 because xorshift cannot leave the zero state.
func NewXorShift(seed uint64) *XorShift {
	if seed == 0 {
		seed = 1
	}
	return &XorShift{state: seed}
}

func (x *XorShift) next() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// IntN returns a number in [0, n). It panics if n <= 0, like math/rand.
func (x *XorShift) IntN(n int) int {
	if n <= 0 {
		panic("engine: IntN called with n <= 0")
	}
	return int(x.next() % uint64(n))
}

// globalRand delegates to the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand is used by states that were not given a source, such as
// snapshots decoded from the wire.
var DefaultRand Rand = globalRand{}
