package grid

import "epi-ca/internal/epidemic"

// View is a read-only window onto a logical grid, handed to renderers and
// reporters. It must not outlive the step it was created for.
type View struct {
	rows, cols int
	cells      []epidemic.Cell
}

// NewView wraps a row-major logical grid.
func NewView(rows, cols int, cells []epidemic.Cell) View {
	return View{rows: rows, cols: cols, cells: cells}
}

// Rows returns the number of rows.
func (v View) Rows() int { return v.rows }

// Cols returns the number of columns.
func (v View) Cols() int { return v.cols }

// Len returns the number of cells.
func (v View) Len() int { return len(v.cells) }

// At returns the cell at (x, y).
func (v View) At(x, y int) epidemic.Cell { return v.cells[y*v.cols+x] }

// Status returns the status at (x, y).
func (v View) Status(x, y int) epidemic.Status { return v.cells[y*v.cols+x].Status }

// Census tallies the view per status.
func (v View) Census() epidemic.Census { return epidemic.Count(v.cells) }

// AppendCells appends a copy of every cell to dst.
func (v View) AppendCells(dst []epidemic.Cell) []epidemic.Cell {
	return append(dst, v.cells...)
}

// Statuses writes one status byte per cell into dst, growing it if needed.
func (v View) Statuses(dst []uint8) []uint8 {
	if cap(dst) < len(v.cells) {
		dst = make([]uint8, len(v.cells))
	}
	dst = dst[:len(v.cells)]
	for i := range v.cells {
		dst[i] = uint8(v.cells[i].Status)
	}
	return dst
}
