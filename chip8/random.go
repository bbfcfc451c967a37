package chip8

import "math/rand"

// Random is a source of random bytes for the Cxkk instruction.
type Random interface {
	Byte() byte
}

type seededRandom struct {
	r *rand.Rand
}

// NewRandom returns a Random whose output is determined by seed.
func NewRandom(seed int64) Random {
	return seededRandom{r: rand.New(rand.NewSource(seed))}
}

func (s seededRandom) Byte() byte { return byte(s.r.Intn(0x100)) }

// FixedRandom is a Random that always returns the same byte.
type FixedRandom byte

func (f FixedRandom) Byte() byte { return byte(f) }
