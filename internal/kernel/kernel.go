// Package kernel advances one worker's row block by a single step.
package kernel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"epi-ca/internal/core"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// Kernel applies the cell rules to the interior rows of a block.
type Kernel struct {
	params  epidemic.Params
	streams core.Streams
	threads int
}

// New returns a kernel. threads <= 1 evaluates rows sequentially; streams
// that are not safe for concurrent use must be paired with one thread.
func New(params epidemic.Params, streams core.Streams, threads int) *Kernel {
	if threads < 1 {
		threads = 1
	}
	return &Kernel{params: params, streams: streams, threads: threads}
}

// Threads reports how many row bands are evaluated concurrently.
func (k *Kernel) Threads() int { return k.threads }

// Step computes the next state of block's interior into out, which must hold
// block.Rows()*block.Cols() cells. firstRow is the logical row of the
// block's first interior row in the full grid and keys the random streams.
// Every read comes from block, which is left untouched, so the evaluation
// order of cells does not matter.
func (k *Kernel) Step(ctx context.Context, block *grid.Padded, firstRow, step int, out []epidemic.Cell) error {
	rows, cols := block.Rows(), block.Cols()
	if len(out) != rows*cols {
		return fmt.Errorf("kernel output holds %d cells, want %d: %w", len(out), rows*cols, grid.ErrBlockSize)
	}
	copy(out, block.Interior())

	threads := k.threads
	if threads > rows {
		threads = rows
	}
	if threads == 1 {
		return k.band(ctx, block, firstRow, step, 0, rows, out)
	}

	g, ctx := errgroup.WithContext(ctx)
	per := rows / threads
	for i := 0; i < threads; i++ {
		start := i * per
		end := start + per
		if i == threads-1 {
			end = rows
		}
		g.Go(func() error {
			return k.band(ctx, block, firstRow, step, start, end, out)
		})
	}
	return g.Wait()
}

func (k *Kernel) band(ctx context.Context, block *grid.Padded, firstRow, step, start, end int, out []epidemic.Cell) error {
	cols := block.Cols()
	for y := start; y < end; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := out[y*cols : (y+1)*cols]
		for x := range row {
			next := &row[x]
			if next.Status.Inert() {
				continue
			}
			r := k.streams.For(step, (firstRow+y)*cols+x)
			epidemic.Advance(next, block.Neighbors(x, y), step, r, k.params)
		}
	}
	return nil
}
