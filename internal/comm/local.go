package comm

import (
	"context"
	"fmt"
	"slices"

	"epi-ca/internal/epidemic"
)

// Local is a rank of an in-process group. Each rank is meant to be driven by
// its own goroutine.
type Local struct {
	x    *exchange
	rank int
}

// NewGroup connects n in-process ranks. Element i has rank i.
func NewGroup(n int) ([]*Local, error) {
	if n < 1 {
		return nil, fmt.Errorf("new group of %d: %w", n, ErrGroupSize)
	}
	x := newExchange(n)
	ranks := make([]*Local, n)
	for i := range ranks {
		ranks[i] = &Local{x: x, rank: i}
	}
	return ranks, nil
}

func (l *Local) Rank() int { return l.rank }
func (l *Local) Size() int { return l.x.size }

func (l *Local) Scatter(ctx context.Context, send []epidemic.Cell, counts, displs []int, recv []epidemic.Cell) error {
	if l.rank == Root {
		return l.x.scatter(ctx, send, counts, displs, recv)
	}
	seg, err := l.x.receive(ctx, l.rank)
	if err != nil {
		return err
	}
	if err := expectLen("scatter", l.rank, len(seg), len(recv)); err != nil {
		return err
	}
	copy(recv, seg)
	return nil
}

func (l *Local) Gather(ctx context.Context, send []epidemic.Cell, recv []epidemic.Cell, counts, displs []int) error {
	if l.rank == Root {
		return l.x.collect(ctx, send, recv, counts, displs)
	}
	return l.x.submit(ctx, l.rank, slices.Clone(send))
}

func (l *Local) Abort(err error) { l.x.abort(err) }

// Close is a no-op; in-process ranks hold no resources.
func (l *Local) Close() error { return nil }
