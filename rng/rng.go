package rng

import (
	"math/rand"
	"time"
)

// A source of pseudo-random numbers.
//
// Strategies never own their source. It is injected so tests can substitute a deterministic one.
type Source interface {
	// A uniformly distributed 32 bit value
	Int32() uint32
	// A uniformly distributed value in [0, 1)
	Float64() float64
}

// Generates the seed used by New when it is given a seed of 0.
// By default uses the current time in nanoseconds.
var SeedGeneratorFn = func() int64 {
	return time.Now().UnixNano()
}

// A Source backed by math/rand
type Rand struct {
	rand *rand.Rand
}

// Create a new seeded source. A seed of 0 draws a seed from SeedGeneratorFn
func New(seed int64) *Rand {
	if seed == 0 {
		seed = SeedGeneratorFn()
	}
	return &Rand{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *Rand) Int32() uint32 {
	return r.rand.Uint32()
}

func (r *Rand) Float64() float64 {
	return r.rand.Float64()
}

// A deterministic Source replaying fixed values.
//
// Int32 and Float64 cycle through their own list. An empty list always yields 0.
type Sequence struct {
	ints   []uint32
	floats []float64

	nextInt   int
	nextFloat int
}

// Create a Sequence returning ints from Int32 and floats from Float64
func NewSequence(ints []uint32, floats []float64) *Sequence {
	return &Sequence{
		ints:   ints,
		floats: floats,
	}
}

func (s *Sequence) Int32() uint32 {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.nextInt]
	s.nextInt = (s.nextInt + 1) % len(s.ints)
	return v
}

func (s *Sequence) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.nextFloat]
	s.nextFloat = (s.nextFloat + 1) % len(s.floats)
	return v
}
