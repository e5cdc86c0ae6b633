package engine

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"epi-ca/internal/comm"
	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
	"epi-ca/internal/kernel"
)

func quiet() Options {
	log := logrus.New()
	log.Out = io.Discard
	return Options{Log: log}
}

func lively(rows, cols int) epidemic.Config {
	cfg := epidemic.DefaultConfig()
	cfg.Rows, cfg.Cols = rows, cols
	cfg.Seed = 42
	cfg.Params.SeedExposedChance = 0.05
	cfg.Params.EmptyChance = 0.2
	return cfg
}

func setGrid(t *testing.T, g *Group, cells []epidemic.Cell) {
	t.Helper()
	cur := g.coord.bufs[g.coord.cur]
	if len(cells) != len(cur.Interior()) {
		t.Fatalf("setGrid: %d cells for a %d-cell grid", len(cells), len(cur.Interior()))
	}
	copy(cur.Interior(), cells)
	cur.ReplicateHalo()
}

func snapshot(v grid.View) []epidemic.Cell { return v.AppendCells(nil) }

func TestOutbreakEndToEnd(t *testing.T) {
	cfg := epidemic.DefaultConfig()
	cfg.Rows, cfg.Cols = 4, 4
	cfg.Params.ChildSusceptibility = 0
	cfg.Params.AdultSusceptibility = 0
	cfg.Params.ElderSusceptibility = 0
	cfg.Params.RiskBonus = 0
	cfg.Params.DiseaseStrength = 8

	g, err := NewGroup(cfg, 1, quiet())
	if err != nil {
		t.Fatal(err)
	}
	cells := make([]epidemic.Cell, 16)
	for i := range cells {
		cells[i] = epidemic.Cell{Age: epidemic.Adult, Status: epidemic.Susceptible}
	}
	cells[0] = epidemic.Cell{Age: epidemic.Adult, Status: epidemic.Contagious}
	setGrid(t, g, cells)

	if err := g.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	c := g.Census()
	if c.Of(epidemic.Exposed) != 8 || c.Of(epidemic.Susceptible) != 7 || c.Of(epidemic.Contagious) != 1 {
		t.Fatalf("census after one step = %v, want 8 exposed, 7 susceptible, 1 contagious", c)
	}
	v := g.Grid()
	for _, xy := range [][2]int{{1, 0}, {3, 0}, {0, 1}, {0, 3}, {1, 1}, {3, 3}, {1, 3}, {3, 1}} {
		cell := v.At(xy[0], xy[1])
		if cell.Status != epidemic.Exposed || cell.InfectionTime != 0 {
			t.Fatalf("cell %v = %v at %d, want exposed at 0", xy, cell.Status, cell.InfectionTime)
		}
	}
	if g.Turn() != 1 {
		t.Fatalf("turn = %d, want 1", g.Turn())
	}
}

func TestDecompositionMatchesWholeGridKernel(t *testing.T) {
	cfg := lively(8, 5)
	for _, workers := range []int{1, 2, 4} {
		g, err := NewGroup(cfg, workers, quiet())
		if err != nil {
			t.Fatal(err)
		}
		for step := 0; step < 10; step++ {
			whole := grid.NewPadded(cfg.Rows, cfg.Cols)
			copy(whole.Interior(), snapshot(g.Grid()))
			whole.ReplicateHalo()
			want := make([]epidemic.Cell, cfg.Rows*cfg.Cols)
			k := kernel.New(cfg.Params, core.CellStreams{Seed: cfg.Seed}, 1)
			if err := k.Step(context.Background(), whole, 0, step, want); err != nil {
				t.Fatal(err)
			}
			if err := g.Step(context.Background()); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(want, snapshot(g.Grid())) {
				t.Fatalf("P=%d step %d: distributed step differs from whole-grid kernel", workers, step)
			}
		}
	}
}

func TestWorkerCountDoesNotChangeOutcome(t *testing.T) {
	cfg := lively(12, 10)
	var want []epidemic.Cell
	for _, workers := range []int{1, 2, 3, 4, 6} {
		opts := quiet()
		opts.Threads = workers
		g, err := NewGroup(cfg, workers, opts)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Run(context.Background(), 40); err != nil {
			t.Fatal(err)
		}
		got := snapshot(g.Grid())
		if want == nil {
			want = got
			if g.Census().Of(epidemic.Susceptible) == g.Census().Population() {
				t.Fatal("no infection happened; the scenario is too quiet to compare")
			}
			continue
		}
		if !slices.Equal(want, got) {
			t.Fatalf("%d workers produced a different grid", workers)
		}
	}
}

func TestRankSeedModeIsReproducible(t *testing.T) {
	cfg := lively(8, 8)
	cfg.SeedMode = epidemic.SeedPerRank
	run := func() []epidemic.Cell {
		opts := quiet()
		opts.Threads = 4
		g, err := NewGroup(cfg, 2, opts)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Run(context.Background(), 20); err != nil {
			t.Fatal(err)
		}
		return snapshot(g.Grid())
	}
	if !slices.Equal(run(), run()) {
		t.Fatal("same seed and worker count gave different grids")
	}
}

func TestResetRestartsFromSeed(t *testing.T) {
	cfg := lively(6, 6)
	g, err := NewGroup(cfg, 2, quiet())
	if err != nil {
		t.Fatal(err)
	}
	initial := snapshot(g.Grid())
	if err := g.Run(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	g.Reset(cfg.Seed)
	if g.Turn() != 0 {
		t.Fatalf("turn after reset = %d", g.Turn())
	}
	if !slices.Equal(initial, snapshot(g.Grid())) {
		t.Fatal("reset with the same seed did not restore the initial grid")
	}
	if err := g.Step(context.Background()); err != nil {
		t.Fatalf("step after reset: %v", err)
	}
}

func TestInvalidPartitionFailsBeforeAnyStep(t *testing.T) {
	cfg := epidemic.DefaultConfig()
	cfg.Rows = 6
	if _, err := NewGroup(cfg, 4, quiet()); !errors.Is(err, grid.ErrIndivisible) {
		t.Fatalf("NewGroup error = %v, want ErrIndivisible", err)
	}

	comms, err := comm.NewGroup(4)
	if err != nil {
		t.Fatal(err)
	}
	observed := 0
	obs := ObserverFunc(func(int, grid.View) error { observed++; return nil })
	var eg errgroup.Group
	for _, c := range comms {
		eg.Go(func() error {
			err := Run(context.Background(), c, cfg, quiet(), obs)
			if !errors.Is(err, grid.ErrIndivisible) {
				t.Errorf("rank %d error = %v, want ErrIndivisible", c.Rank(), err)
			}
			return nil
		})
	}
	eg.Wait()
	if observed != 0 {
		t.Fatalf("observer ran %d times for an invalid run", observed)
	}
}

func TestCoordinatorNeedsRoot(t *testing.T) {
	comms, err := comm.NewGroup(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCoordinator(comms[1], epidemic.DefaultConfig(), quiet()); !errors.Is(err, ErrNotRoot) {
		t.Fatalf("error = %v, want ErrNotRoot", err)
	}
}

func TestRunNotifiesEveryStep(t *testing.T) {
	cfg := lively(6, 4)
	cfg.Steps = 5
	comms, err := comm.NewGroup(3)
	if err != nil {
		t.Fatal(err)
	}
	var steps []int
	obs := ObserverFunc(func(step int, v grid.View) error {
		if v.Census().Total() != cfg.Rows*cfg.Cols {
			t.Errorf("step %d: census covers %d cells", step, v.Census().Total())
		}
		steps = append(steps, step)
		return nil
	})
	var eg errgroup.Group
	for _, c := range comms {
		eg.Go(func() error { return Run(context.Background(), c, cfg, quiet(), obs) })
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(steps, []int{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("observed steps %v", steps)
	}
}

func TestObserverErrorAbortsWorkers(t *testing.T) {
	cfg := lively(4, 4)
	cfg.Steps = 10
	comms, err := comm.NewGroup(2)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("disk full")
	obs := ObserverFunc(func(step int, _ grid.View) error {
		if step == 2 {
			return boom
		}
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs := make([]error, 2)
	var eg errgroup.Group
	for i, c := range comms {
		eg.Go(func() error {
			errs[i] = Run(ctx, c, cfg, quiet(), obs)
			return nil
		})
	}
	eg.Wait()
	if !errors.Is(errs[0], boom) {
		t.Fatalf("root error = %v, want observer error", errs[0])
	}
	if !errors.Is(errs[1], comm.ErrAborted) {
		t.Fatalf("worker error = %v, want ErrAborted", errs[1])
	}
}

func TestRunOverRPCMatchesInProcess(t *testing.T) {
	cfg := lively(8, 6)
	cfg.Steps = 15
	manifest, err := epidemic.EncodeConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts := quiet()
	hub, err := comm.Listen("127.0.0.1:0", 2, manifest, opts.Log)
	if err != nil {
		t.Fatal(err)
	}
	defer hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var final []epidemic.Cell
	var eg errgroup.Group
	eg.Go(func() error {
		r, err := comm.Dial(ctx, hub.Addr(), "worker")
		if err != nil {
			return err
		}
		defer r.Close()
		wcfg, err := epidemic.DecodeConfig(r.Manifest())
		if err != nil {
			return err
		}
		return Run(ctx, r, wcfg, opts)
	})
	eg.Go(func() error {
		if err := hub.WaitJoined(ctx); err != nil {
			return err
		}
		return Run(ctx, hub.Comm(), cfg, opts, ObserverFunc(func(step int, v grid.View) error {
			if step == cfg.Steps {
				final = snapshot(v)
			}
			return nil
		}))
	})
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	g, err := NewGroup(cfg, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background(), cfg.Steps); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(final, snapshot(g.Grid())) {
		t.Fatal("rpc run and in-process run diverged")
	}
}

func TestSimAdapter(t *testing.T) {
	cfg := lively(6, 4)
	s, err := NewSim(cfg, 2, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != (core.Size{W: 4, H: 6}) {
		t.Fatalf("size = %+v", s.Size())
	}
	if len(s.Cells()) != 24 {
		t.Fatalf("cells = %d", len(s.Cells()))
	}
	for i := 0; i < 3; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Turn() != 3 {
		t.Fatalf("turn = %d", s.Turn())
	}
	if err := s.Reset(7); err != nil {
		t.Fatal(err)
	}
	if s.Turn() != 0 {
		t.Fatalf("turn after reset = %d", s.Turn())
	}
	if p, ok := s.Parameters().Lookup("seed"); !ok || p.Value != "7" {
		t.Fatalf("seed parameter = %+v, %v", p, ok)
	}
	census := s.Census()
	for _, st := range s.Cells() {
		census[st]--
	}
	for st, n := range census {
		if n != 0 {
			t.Fatalf("census disagrees with cells for %v", epidemic.Status(st))
		}
	}
}
