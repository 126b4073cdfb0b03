package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// NewPCG returns a PCG source seeded deterministically from the provided int64.
// The source is returned by value so callers can embed it in value types and
// copy it along with the rest of their state.
func NewPCG(seed int64) rand.PCG {
	u := uint64(seed)
	return *rand.NewPCG(mix(u), mix(u+goldenRatio64))
}

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	src := NewPCG(seed)
	return rand.New(&src)
}

// Seed returns a seed derived from the wall clock, for callers that do not
// need reproducible sequences.
func Seed() int64 {
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
