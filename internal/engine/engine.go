// Package engine runs the epidemic over a group of ranks. The root rank owns
// the full grid and distributes overlapping row blocks every step; every rank,
// root included, advances its block with the kernel.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"epi-ca/internal/comm"
	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
	"epi-ca/internal/kernel"
)

// ErrNotRoot is returned when a coordinator is built on a non-root rank.
var ErrNotRoot = errors.New("engine: coordinator requires the root rank")

// Options tunes how a rank computes. The zero value runs single-threaded and
// logs to the standard logrus logger.
type Options struct {
	Threads int
	Log     logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Observer is told about the authoritative grid after every completed step,
// and once before the first. The view is only valid during the call.
type Observer interface {
	Observe(step int, v grid.View) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, v grid.View) error

func (f ObserverFunc) Observe(step int, v grid.View) error { return f(step, v) }

// newKernel picks the random streams for a rank. Per-rank generators are
// order dependent, so they force a single thread.
func newKernel(cfg epidemic.Config, rank, threads int) *kernel.Kernel {
	if cfg.SeedMode == epidemic.SeedPerRank {
		return kernel.New(cfg.Params, core.SharedStream{R: core.NewRNG(cfg.Seed + int64(rank))}, 1)
	}
	return kernel.New(cfg.Params, core.CellStreams{Seed: cfg.Seed}, threads)
}

// Participant is one rank's share of a step: receive a block with its halo
// rows, advance it, return the interior.
type Participant struct {
	comm   comm.Communicator
	plan   grid.Plan
	cfg    epidemic.Config
	kernel *kernel.Kernel
	block  *grid.Padded
	out    []epidemic.Cell
	step   int
	log    logrus.FieldLogger
}

// NewParticipant validates the partition for the communicator's group size
// and allocates the rank's block buffers.
func NewParticipant(c comm.Communicator, cfg epidemic.Config, opts Options) (*Participant, error) {
	plan, err := grid.NewPlan(cfg.Rows, cfg.Cols, c.Size())
	if err != nil {
		return nil, err
	}
	p := &Participant{
		comm:   c,
		plan:   plan,
		cfg:    cfg,
		kernel: newKernel(cfg, c.Rank(), opts.Threads),
		block:  grid.NewPadded(plan.RowsPerWorker(), plan.Cols()),
		out:    make([]epidemic.Cell, plan.InteriorLen()),
		log:    opts.logger().WithField("rank", c.Rank()),
	}
	if len(p.block.Cells()) != plan.BlockLen() {
		return nil, fmt.Errorf("block holds %d cells, plan needs %d: %w", len(p.block.Cells()), plan.BlockLen(), grid.ErrBlockSize)
	}
	return p, nil
}

// Plan returns the partition this rank works under.
func (p *Participant) Plan() grid.Plan { return p.plan }

// Turn reports how many steps this rank has completed.
func (p *Participant) Turn() int { return p.step }

// Step performs one step from a worker rank.
func (p *Participant) Step(ctx context.Context) error {
	if err := p.comm.Scatter(ctx, nil, nil, nil, p.block.Cells()); err != nil {
		return fmt.Errorf("step %d: %w", p.step, err)
	}
	if err := p.compute(ctx); err != nil {
		return err
	}
	if err := p.comm.Gather(ctx, p.out, nil, nil, nil); err != nil {
		return fmt.Errorf("step %d: %w", p.step, err)
	}
	p.step++
	return nil
}

func (p *Participant) compute(ctx context.Context) error {
	first := p.plan.FirstRow(p.comm.Rank())
	if err := p.kernel.Step(ctx, p.block, first, p.step, p.out); err != nil {
		return fmt.Errorf("step %d: kernel: %w", p.step, err)
	}
	return nil
}

func (p *Participant) reset(seed int64) {
	p.cfg.Seed = seed
	p.kernel = newKernel(p.cfg, p.comm.Rank(), p.kernel.Threads())
	p.step = 0
}

// Run drives one rank for cfg.Steps steps. On the root rank the observers
// see the grid before the first step and after each one. Any failure aborts
// the group so that the other ranks stop too.
func Run(ctx context.Context, c comm.Communicator, cfg epidemic.Config, opts Options, observers ...Observer) (err error) {
	defer func() {
		if err != nil {
			c.Abort(err)
		}
	}()
	if c.Rank() == comm.Root {
		co, err := NewCoordinator(c, cfg, opts)
		if err != nil {
			return err
		}
		return co.Run(ctx, cfg.Steps, observers...)
	}
	p, err := NewParticipant(c, cfg, opts)
	if err != nil {
		return err
	}
	for p.Turn() < cfg.Steps {
		if err := p.Step(ctx); err != nil {
			return err
		}
	}
	p.log.WithField("steps", p.Turn()).Debug("worker finished")
	return nil
}
