package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"epi-ca/internal/comm"
	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// Coordinator owns the authoritative grid on the root rank. It keeps two
// padded buffers and flips between them after every gather.
type Coordinator struct {
	*Participant

	bufs [2]*grid.Padded
	cur  int

	sendCounts []int
	recvCounts []int
	displs     []int
}

// NewCoordinator validates the partition, allocates both grids and
// populates the current one from cfg.Seed.
func NewCoordinator(c comm.Communicator, cfg epidemic.Config, opts Options) (*Coordinator, error) {
	if c.Rank() != comm.Root {
		return nil, fmt.Errorf("rank %d: %w", c.Rank(), ErrNotRoot)
	}
	p, err := NewParticipant(c, cfg, opts)
	if err != nil {
		return nil, err
	}
	plan := p.plan
	co := &Coordinator{
		Participant: p,
		bufs:        [2]*grid.Padded{grid.NewPadded(plan.Rows(), plan.Cols()), grid.NewPadded(plan.Rows(), plan.Cols())},
		sendCounts:  plan.SendCounts(),
		recvCounts:  plan.RecvCounts(),
		displs:      plan.Displacements(),
	}
	for _, b := range co.bufs {
		if len(b.Cells()) != plan.PaddedLen() {
			return nil, fmt.Errorf("grid holds %d cells, plan needs %d: %w", len(b.Cells()), plan.PaddedLen(), grid.ErrBlockSize)
		}
	}
	co.populate()
	co.log.WithFields(logrus.Fields{
		"rows":      plan.Rows(),
		"cols":      plan.Cols(),
		"workers":   plan.Workers(),
		"block":     plan.BlockRows(),
		"seed":      cfg.Seed,
		"seed_mode": cfg.SeedMode,
	}).Info("coordinator ready")
	return co, nil
}

func (c *Coordinator) populate() {
	c.cur = 0
	g := c.bufs[c.cur]
	epidemic.Populate(g.Interior(), core.NewRNG(c.cfg.Seed), c.cfg.Params)
	g.ReplicateHalo()
}

// Reset re-populates the grid from seed and restarts at step 0. Worker
// ranks must be reset alongside.
func (c *Coordinator) Reset(seed int64) {
	c.reset(seed)
	c.populate()
}

// Grid returns a read-only view of the authoritative grid.
func (c *Coordinator) Grid() grid.View { return c.bufs[c.cur].View() }

// Step runs one lock-step iteration: stage the halo, scatter blocks, advance
// the root's block, gather every interior into the other buffer, then make
// it current.
func (c *Coordinator) Step(ctx context.Context) error {
	cur, next := c.bufs[c.cur], c.bufs[1-c.cur]
	cur.ReplicateHalo()
	if err := c.comm.Scatter(ctx, cur.Cells(), c.sendCounts, c.displs, c.block.Cells()); err != nil {
		return fmt.Errorf("step %d: %w", c.step, err)
	}
	if err := c.compute(ctx); err != nil {
		return err
	}
	if err := c.comm.Gather(ctx, c.out, next.Interior(), c.recvCounts, c.displs); err != nil {
		return fmt.Errorf("step %d: %w", c.step, err)
	}
	next.ReplicateHalo()
	c.cur = 1 - c.cur
	c.step++
	return nil
}

// Run advances the grid until steps have completed, notifying observers
// along the way.
func (c *Coordinator) Run(ctx context.Context, steps int, observers ...Observer) error {
	if err := c.notify(observers); err != nil {
		return err
	}
	for c.step < steps {
		if err := c.Step(ctx); err != nil {
			return err
		}
		if err := c.notify(observers); err != nil {
			return err
		}
	}
	census := c.Grid().Census()
	c.log.WithFields(censusFields(census)).WithField("steps", c.step).Info("run complete")
	return nil
}

func (c *Coordinator) notify(observers []Observer) error {
	v := c.Grid()
	c.log.WithFields(censusFields(v.Census())).WithField("step", c.step).Debug("step")
	for _, o := range observers {
		if err := o.Observe(c.step, v); err != nil {
			return fmt.Errorf("observe step %d: %w", c.step, err)
		}
	}
	return nil
}

func censusFields(c epidemic.Census) logrus.Fields {
	f := logrus.Fields{}
	for s := epidemic.Empty; int(s) < epidemic.NumStatuses; s++ {
		f[s.String()] = c.Of(s)
	}
	return f
}
