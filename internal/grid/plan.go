package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensions reports a grid smaller than 2x2.
	ErrDimensions = errors.New("grid needs at least 2 rows and 2 cols")
	// ErrWorkers reports a worker count below one.
	ErrWorkers = errors.New("worker count must be at least 1")
	// ErrIndivisible reports rows that do not split evenly between workers.
	ErrIndivisible = errors.New("rows must be divisible by the worker count")
	// ErrBlockSize reports a buffer whose length disagrees with the plan.
	ErrBlockSize = errors.New("buffer size does not match partition plan")
)

// Plan describes how a rows x cols grid is split into equal row blocks, one
// per worker, each padded with a halo row above and below. All counts and
// displacements are in cells. Scatter displacements are measured from the
// start of the padded grid; gather displacements from the start of its
// interior.
type Plan struct {
	rows, cols    int
	workers       int
	rowsPerWorker int
}

// NewPlan validates the dimensions and derives the partition.
func NewPlan(rows, cols, workers int) (Plan, error) {
	if rows < 2 || cols < 2 {
		return Plan{}, fmt.Errorf("plan %dx%d: %w", rows, cols, ErrDimensions)
	}
	if workers < 1 {
		return Plan{}, fmt.Errorf("plan for %d workers: %w", workers, ErrWorkers)
	}
	if rows%workers != 0 {
		return Plan{}, fmt.Errorf("plan %d rows over %d workers: %w", rows, workers, ErrIndivisible)
	}
	return Plan{rows: rows, cols: cols, workers: workers, rowsPerWorker: rows / workers}, nil
}

func (p Plan) Rows() int          { return p.rows }
func (p Plan) Cols() int          { return p.cols }
func (p Plan) Workers() int       { return p.workers }
func (p Plan) RowsPerWorker() int { return p.rowsPerWorker }

// BlockRows is the number of rows each worker receives, halo included.
func (p Plan) BlockRows() int { return p.rowsPerWorker + 2 }

// SendCount is the number of cells scattered to worker i.
func (p Plan) SendCount(int) int { return p.BlockRows() * p.cols }

// RecvCount is the number of interior cells gathered from worker i.
func (p Plan) RecvCount(int) int { return p.rowsPerWorker * p.cols }

// Displacement is the offset of worker i's data, in cells.
func (p Plan) Displacement(i int) int { return i * p.rowsPerWorker * p.cols }

// FirstRow is the first logical row owned by worker i.
func (p Plan) FirstRow(i int) int { return i * p.rowsPerWorker }

// SendCounts returns SendCount for every worker.
func (p Plan) SendCounts() []int { return p.each(p.SendCount) }

// RecvCounts returns RecvCount for every worker.
func (p Plan) RecvCounts() []int { return p.each(p.RecvCount) }

// Displacements returns Displacement for every worker.
func (p Plan) Displacements() []int { return p.each(p.Displacement) }

// PaddedLen is the length of the coordinator's padded grid.
func (p Plan) PaddedLen() int { return (p.rows + 2) * p.cols }

// BlockLen is the length of one worker block, halo included.
func (p Plan) BlockLen() int { return p.BlockRows() * p.cols }

// InteriorLen is the number of cells one worker returns.
func (p Plan) InteriorLen() int { return p.rowsPerWorker * p.cols }

func (p Plan) each(f func(int) int) []int {
	out := make([]int, p.workers)
	for i := range out {
		out[i] = f(i)
	}
	return out
}
