package common

import "math/rand"

// Rand is the single seeded RNG instance the core threads explicitly
// through the driver and down into every stochastic step (the fear-freeze
// roll is the only one today). spec.md §9 flags the teacher's process-wide
// crypto/rand seeding as a pattern to eliminate: crypto/rand cannot be
// seeded, so two runs with "identical seed" could never produce identical
// snapshots. Rand wraps *rand.Rand instead and is never read from a global.
//
// Seed and DrawCount together are the RNG's full persisted state
// (spec.md §6): math/rand's internal generator state isn't itself
// serializable, so a restored Rand replays draws silently to reach the
// same position in the stream rather than exposing raw generator bytes.
type Rand struct {
	src       *rand.Rand
	seed      int64
	drawCount uint64
}

// NewRand builds a Rand from an explicit seed. Two Rands built from the
// same seed and driven by the same call sequence produce identical output.
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed)), seed: seed}
}

// Restore rebuilds a Rand from a previously persisted seed and draw count,
// replaying exactly drawCount draws so the stream position matches what
// was saved.
func Restore(seed int64, drawCount uint64) *Rand {
	r := NewRand(seed)
	for i := uint64(0); i < drawCount; i++ {
		r.src.Float64()
	}
	r.drawCount = drawCount
	return r
}

// Seed returns the seed this Rand was constructed from.
func (r *Rand) Seed() int64 {
	return r.seed
}

// DrawCount returns how many draws have been consumed since construction.
func (r *Rand) DrawCount() uint64 {
	return r.drawCount
}

// Float64 returns a pseudo-random number in [0.0, 1.0). Every other draw
// method is built on top of this one so DrawCount always means "number of
// Float64 draws consumed" — the one unit Restore knows how to replay.
func (r *Rand) Float64() float64 {
	r.drawCount++
	return r.src.Float64()
}

// DiceRoll returns a pseudo-random integer in [1, num].
func (r *Rand) DiceRoll(num int) int {
	if num <= 0 {
		return 0
	}
	return int(r.Float64()*float64(num)) + 1
}

// Between returns a pseudo-random integer in [low, high].
func (r *Rand) Between(low, high int) int {
	if high < low {
		low, high = high, low
	}
	span := high - low + 1
	return low + int(r.Float64()*float64(span))
}
