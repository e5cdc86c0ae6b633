//go:build ebiten

package ui

import (
	"fmt"
	"image/color"
	"strings"

	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type censusProvider interface {
	Census() epidemic.Census
}

// HUD renders a read-only census and parameter panel to the right of the
// simulation view.
type HUD struct {
	sim        core.Sim
	width      int
	panel      *ebiten.Image
	lastHeight int
	snapshot   core.ParameterSnapshot
	census     epidemic.Census
	hasCensus  bool
	title      string

	pixel *ebiten.Image
}

// NewHUD constructs a HUD for the provided simulation and panel width. It
// returns nil when width is not positive; a nil HUD draws nothing.
func NewHUD(sim core.Sim, width int) *HUD {
	if width <= 0 {
		return nil
	}
	h := &HUD{sim: sim, width: width, title: buildTitle(sim)}
	h.pixel = ebiten.NewImage(1, 1)
	h.pixel.Fill(color.White)
	if provider, ok := sim.(core.ParameterProvider); ok {
		h.snapshot = provider.Parameters()
	}
	return h
}

// Update refreshes the cached census and parameters.
func (h *HUD) Update() {
	if h == nil {
		return
	}
	if provider, ok := h.sim.(core.ParameterProvider); ok {
		h.snapshot = provider.Parameters()
	}
	if provider, ok := h.sim.(censusProvider); ok {
		h.census = provider.Census()
		h.hasCensus = true
	}
}

// Draw paints the HUD panel anchored to the right edge of the simulation view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	height := h.sim.Size().H * scale
	if height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})

	face := basicfont.Face7x13
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	dim := color.RGBA{R: 150, G: 150, B: 160, A: 255}
	y := panelPadding + headerBaseline
	text.Draw(h.panel, h.title, face, panelPadding, y, fg)
	y += lineHeight
	text.Draw(h.panel, fmt.Sprintf("Step %d", h.sim.Turn()), face, panelPadding, y, fg)

	if h.hasCensus {
		y += lineHeight
		for s := epidemic.Empty; int(s) < epidemic.NumStatuses; s++ {
			h.swatch(panelPadding, y-swatchSize, s.Color())
			label := fmt.Sprintf("%-12s %6d", s.String(), h.census.Of(s))
			text.Draw(h.panel, label, face, panelPadding+swatchSize+6, y, fg)
			y += lineHeight
		}
	}

	for _, group := range h.snapshot.Groups {
		y += lineHeight / 2
		if y > height-panelPadding {
			break
		}
		text.Draw(h.panel, group.Name, face, panelPadding, y, fg)
		y += lineHeight
		for _, p := range group.Params {
			if y > height-panelPadding {
				break
			}
			text.Draw(h.panel, fmt.Sprintf("%s: %s", p.Label, p.Value), face, panelPadding+6, y, dim)
			y += lineHeight
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) swatch(x, y int, c color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(swatchSize, swatchSize)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	h.panel.DrawImage(h.pixel, op)
}

func buildTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Census"
	}
	name := sim.Name()
	return strings.ToUpper(name[:1]) + name[1:]
}

const (
	panelPadding   = 12
	lineHeight     = 16
	headerBaseline = 6
	swatchSize     = 10
)
