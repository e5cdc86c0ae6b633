package grid

import (
	"fmt"

	"epi-ca/internal/epidemic"
)

// Padded stores a row-major block of cells with one halo row above and one
// below its interior. Logical row y lives at padded row y+1; padded row 0
// mirrors the last logical row and padded row rows+1 mirrors the first.
// Halo rows are never authoritative.
//
// The same layout serves as the coordinator's full grid and as a worker's
// block.
type Padded struct {
	rows, cols int
	cells      []epidemic.Cell
}

// NewPadded allocates a padded grid with the given interior dimensions.
func NewPadded(rows, cols int) *Padded {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return &Padded{rows: rows, cols: cols, cells: make([]epidemic.Cell, (rows+2)*cols)}
}

// WrapPadded adopts an existing backing slice, which must hold exactly
// (rows+2)*cols cells.
func WrapPadded(rows, cols int, cells []epidemic.Cell) (*Padded, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("wrap %dx%d: %w", rows, cols, ErrDimensions)
	}
	if want := (rows + 2) * cols; len(cells) != want {
		return nil, fmt.Errorf("wrap %dx%d: have %d cells, want %d: %w", rows, cols, len(cells), want, ErrBlockSize)
	}
	return &Padded{rows: rows, cols: cols, cells: cells}, nil
}

// Rows returns the number of interior rows.
func (p *Padded) Rows() int { return p.rows }

// Cols returns the row width.
func (p *Padded) Cols() int { return p.cols }

// Cells exposes the full backing slice, halo rows included.
func (p *Padded) Cells() []epidemic.Cell { return p.cells }

// Interior exposes the authoritative rows only.
func (p *Padded) Interior() []epidemic.Cell {
	return p.cells[p.cols : (p.rows+1)*p.cols]
}

// Index returns the backing-slice index of logical (x, y). y may be -1 or
// rows to address the halo rows.
func (p *Padded) Index(x, y int) int { return (y+1)*p.cols + x }

// Row returns logical row y, which may be -1 or rows for the halo rows.
func (p *Padded) Row(y int) []epidemic.Cell {
	start := (y + 1) * p.cols
	return p.cells[start : start+p.cols]
}

// At returns the cell at logical (x, y).
func (p *Padded) At(x, y int) epidemic.Cell { return p.cells[p.Index(x, y)] }

// Set stores c at logical (x, y).
func (p *Padded) Set(x, y int, c epidemic.Cell) { p.cells[p.Index(x, y)] = c }

// ReplicateHalo copies the last interior row into the top halo and the first
// interior row into the bottom halo. Applying it repeatedly is harmless.
func (p *Padded) ReplicateHalo() {
	copy(p.Row(-1), p.Row(p.rows-1))
	copy(p.Row(p.rows), p.Row(0))
}

// Neighbors returns the eight neighbours of logical (x, y). Columns wrap
// toroidally; rows are taken from the halo rows at the block edges, so the
// caller must have staged them.
func (p *Padded) Neighbors(x, y int) epidemic.Neighbors {
	w := p.cols
	left := (x - 1 + w) % w
	right := (x + 1) % w
	above := y * w
	here := (y + 1) * w
	below := (y + 2) * w
	c := p.cells
	return epidemic.Neighbors{
		epidemic.TopLeft:     c[above+left],
		epidemic.Top:         c[above+x],
		epidemic.TopRight:    c[above+right],
		epidemic.Left:        c[here+left],
		epidemic.Right:       c[here+right],
		epidemic.BottomLeft:  c[below+left],
		epidemic.Bottom:      c[below+x],
		epidemic.BottomRight: c[below+right],
	}
}

// View returns a read-only view of the interior.
func (p *Padded) View() View { return View{rows: p.rows, cols: p.cols, cells: p.Interior()} }
