package game

import (
	mathrand "math/rand"
	"time"
)

// Dice is the engine's only source of randomness. A fixed seed replays the
// same sequence of events.
type Dice struct {
	rand *mathrand.Rand
}

func NewDice(seed int64) *Dice {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Dice{rand: mathrand.New(mathrand.NewSource(seed))}
}

func (d *Dice) Float() float64 {
	return d.rand.Float64()
}

func (d *Dice) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return d.rand.Intn(n)
}

// Between returns a value in [lo, hi].
func (d *Dice) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + d.rand.Intn(hi-lo+1)
}

// Range returns a float in [lo, hi).
func (d *Dice) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*d.rand.Float64()
}

func (d *Dice) Shuffle(n int, swap func(i, j int)) {
	d.rand.Shuffle(n, swap)
}

func pick[T any](d *Dice, items []T) T {
	return items[d.Intn(len(items))]
}
