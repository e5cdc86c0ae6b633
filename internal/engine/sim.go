package engine

import (
	"context"

	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
)

// Sim exposes an in-process group through the renderer contract.
type Sim struct {
	group *Group
	cfg   epidemic.Config
	buf   []uint8
}

var (
	_ core.Sim               = (*Sim)(nil)
	_ core.ParameterProvider = (*Sim)(nil)
)

// NewSim runs cfg over workers in-process ranks.
func NewSim(cfg epidemic.Config, workers int, opts Options) (*Sim, error) {
	g, err := NewGroup(cfg, workers, opts)
	if err != nil {
		return nil, err
	}
	return &Sim{group: g, cfg: cfg}, nil
}

// Name identifies the simulation.
func (s *Sim) Name() string { return "epidemic" }

// Size returns the grid dimensions.
func (s *Sim) Size() core.Size { return core.Size{W: s.cfg.Cols, H: s.cfg.Rows} }

// Reset re-populates the grid and restarts at step 0.
func (s *Sim) Reset(seed int64) error {
	s.cfg.Seed = seed
	s.group.Reset(seed)
	return nil
}

// Step advances the grid by one step.
func (s *Sim) Step() error { return s.group.Step(context.Background()) }

// Turn reports how many steps have completed since the last reset.
func (s *Sim) Turn() int { return s.group.Turn() }

// Cells returns the status of every cell, row-major. The slice is reused
// between calls.
func (s *Sim) Cells() []uint8 {
	s.buf = s.group.Grid().Statuses(s.buf)
	return s.buf
}

// Census counts the current grid per status.
func (s *Sim) Census() epidemic.Census { return s.group.Census() }

// Parameters describes the running configuration.
func (s *Sim) Parameters() core.ParameterSnapshot { return s.cfg.Parameters() }
