package play

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrEmptySet is returned by PickOne when there is nothing to pick from.
var ErrEmptySet = errors.New("play: empty candidate set")

// Random draws the bounded values the variants need.
type Random interface {
	// Uniform returns an integer in [min, max].
	Uniform(min, max int) int
	// PickOne returns one of candidates, uniformly.
	PickOne(candidates []int) (int, error)
}

// DefaultRandom uses the runtime-seeded global source; it keeps no state of its own.
type DefaultRandom struct{}

func (DefaultRandom) Uniform(min, max int) int {
	if max < min {
		min, max = max, min
	}
	// Unsigned span so the full int range does not overflow.
	span := uint64(max) - uint64(min)
	if span == math.MaxUint64 {
		return int(rand.Uint64())
	}
	return int(uint64(min) + rand.Uint64N(span+1))
}

func (DefaultRandom) PickOne(candidates []int) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrEmptySet
	}
	return candidates[rand.IntN(len(candidates))], nil
}
