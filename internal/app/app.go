//go:build ebiten

package app

import (
	"image/color"

	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/render"
	"epi-ca/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	hud     *ui.HUD
	palette []color.RGBA

	scale int
	panel int
	limit int
	seed  int64
}

// New constructs a Game for the provided simulation. The simulation stops
// advancing after limit steps; limit <= 0 never stops.
func New(sim core.Sim, scale, panel, limit int, seed int64) *Game {
	gp := render.NewGridPainter(sim.Size().W, sim.Size().H)
	return &Game{
		sim:     sim,
		painter: gp,
		hud:     ui.NewHUD(sim, panel),
		palette: epidemic.Palette(),
		scale:   scale,
		panel:   panel,
		limit:   limit,
		seed:    seed,
	}
}

// Reset re-populates the simulation with the provided seed.
func (g *Game) Reset(seed int64) error {
	g.seed = seed
	return g.sim.Reset(seed)
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.Reset(g.seed); err != nil {
			return err
		}
	}

	if g.limit <= 0 || g.sim.Turn() < g.limit {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	g.hud.Update()
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.palette, g.scale)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.panel, s.H * g.scale
}
