package letter

import (
	"math/rand/v2"
	"sync"
)

// OffsetSource picks a new position for the escaping button.
// The result must lie within [-bound, +bound] on each axis.
type OffsetSource interface {
	Offset(bound Offset) Offset
}

// OffsetFunc adapts a plain function to OffsetSource.
type OffsetFunc func(bound Offset) Offset

func (f OffsetFunc) Offset(bound Offset) Offset { return f(bound) }

// RandomOffsets draws offsets uniformly. Safe for concurrent use,
// so one instance can be shared by all sessions of a server.
type RandomOffsets struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomOffsets returns a generator seeded with seed; the same seed gives the same sequence.
func NewRandomOffsets(seed uint64) *RandomOffsets {
	return &RandomOffsets{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *RandomOffsets) Offset(bound Offset) Offset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Offset{
		X: (r.rnd.Float64()*2 - 1) * bound.X,
		Y: (r.rnd.Float64()*2 - 1) * bound.Y,
	}
}
