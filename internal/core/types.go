package core

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Sim defines the contract a renderer needs from a running simulation.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64) error
	Step() error
	// Turn reports how many steps have completed since the last reset.
	Turn() int
	// Cells returns one display value per cell in row-major order.
	Cells() []uint8
}
