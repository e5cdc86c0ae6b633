package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"epi-ca/internal/comm"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// Group runs every rank of an in-process group in lock-step, one goroutine
// per rank and step.
type Group struct {
	coord   *Coordinator
	workers []*Participant
}

// NewGroup builds a coordinator and workers-1 participants connected by
// channels.
func NewGroup(cfg epidemic.Config, workers int, opts Options) (*Group, error) {
	comms, err := comm.NewGroup(workers)
	if err != nil {
		return nil, err
	}
	coord, err := NewCoordinator(comms[comm.Root], cfg, opts)
	if err != nil {
		return nil, err
	}
	g := &Group{coord: coord}
	for _, c := range comms[1:] {
		p, err := NewParticipant(c, cfg, opts)
		if err != nil {
			return nil, err
		}
		g.workers = append(g.workers, p)
	}
	return g, nil
}

// Step advances every rank by one step. A failing rank aborts the others.
func (g *Group) Step(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return abortOnError(g.coord.comm, g.coord.Step(ctx))
	})
	for _, p := range g.workers {
		eg.Go(func() error {
			return abortOnError(p.comm, p.Step(ctx))
		})
	}
	return eg.Wait()
}

// Run steps the group until steps have completed, notifying observers on
// the root.
func (g *Group) Run(ctx context.Context, steps int, observers ...Observer) error {
	if err := g.coord.notify(observers); err != nil {
		return err
	}
	for g.coord.Turn() < steps {
		if err := g.Step(ctx); err != nil {
			return err
		}
		if err := g.coord.notify(observers); err != nil {
			return err
		}
	}
	return nil
}

// Reset re-populates the grid from seed on every rank.
func (g *Group) Reset(seed int64) {
	g.coord.Reset(seed)
	for _, p := range g.workers {
		p.reset(seed)
	}
}

// Grid returns a read-only view of the authoritative grid.
func (g *Group) Grid() grid.View { return g.coord.Grid() }

// Census counts the current grid per status.
func (g *Group) Census() epidemic.Census { return g.coord.Grid().Census() }

// Turn reports how many steps have completed since the last reset.
func (g *Group) Turn() int { return g.coord.Turn() }

// Plan returns the partition shared by all ranks.
func (g *Group) Plan() grid.Plan { return g.coord.Plan() }

func abortOnError(c comm.Communicator, err error) error {
	if err != nil {
		c.Abort(err)
	}
	return err
}
