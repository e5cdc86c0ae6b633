package core

import "math/rand/v2"

// Rand is the random source consumed by initialization and rule evaluation.
// *rand.Rand and *RNG both satisfy it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// Streams hands out the random source used to update a single cell at a
// given step. index is the cell's row-major index in the logical grid.
type Streams interface {
	For(step, index int) Rand
}

// CellStreams derives an independent generator for every (step, cell) pair,
// so outcomes depend on the seed alone and never on how the grid is split
// between workers or threads. Safe for concurrent use.
type CellStreams struct {
	Seed int64
}

// For returns a fresh generator for the given step and cell.
func (s CellStreams) For(step, index int) Rand {
	hi := splitmix(uint64(s.Seed) ^ splitmix(uint64(step)))
	lo := splitmix(uint64(index) + 0x632be59bd9b4e019)
	return rand.New(rand.NewPCG(hi, lo))
}

// SharedStream returns the same generator for every cell. It is not safe for
// concurrent use and its outcomes depend on evaluation order.
type SharedStream struct {
	R Rand
}

// For ignores its arguments and returns the shared generator.
func (s SharedStream) For(int, int) Rand { return s.R }

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
