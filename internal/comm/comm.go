// Package comm provides the scatter/gather collectives the engine needs to
// move row blocks between ranks, over channels or over net/rpc.
package comm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"epi-ca/internal/epidemic"
)

// Root is the rank that owns the full grid.
const Root = 0

var (
	// ErrAborted is returned by every collective once any rank has aborted.
	ErrAborted = errors.New("comm: group aborted")
	// ErrCountMismatch reports a segment whose length disagrees with the
	// counts a collective was called with.
	ErrCountMismatch = errors.New("comm: count mismatch")
	// ErrGroupSize reports a group with no ranks.
	ErrGroupSize = errors.New("comm: group size must be at least 1")
	// ErrClosed is the abort cause after a hub shuts down.
	ErrClosed = errors.New("comm: closed")
	// ErrConnLost is the abort cause when a worker's connection drops
	// before it has left the group.
	ErrConnLost = errors.New("comm: connection lost")
)

// Communicator is one rank's handle on a group. Scatter and Gather are
// collective: every rank calls them the same number of times in the same
// order, and each blocks until its own part of the exchange is done.
type Communicator interface {
	Rank() int
	Size() int
	// Scatter delivers send[displs[i]:displs[i]+counts[i]] from the root to
	// rank i's recv. Non-root ranks pass nil for send, counts and displs.
	Scatter(ctx context.Context, send []epidemic.Cell, counts, displs []int, recv []epidemic.Cell) error
	// Gather places every rank's send into the root's recv at displs[i].
	// Non-root ranks pass nil for recv, counts and displs.
	Gather(ctx context.Context, send []epidemic.Cell, recv []epidemic.Cell, counts, displs []int) error
	// Abort fails every pending and future collective on every rank.
	Abort(err error)
	Close() error
}

// exchange holds one mailbox per rank in each direction. Mailboxes are
// buffered so the root never waits on a rank that has not yet asked.
type exchange struct {
	size int
	down []chan []epidemic.Cell
	up   []chan []epidemic.Cell

	done  chan struct{}
	once  sync.Once
	cause error
}

func newExchange(size int) *exchange {
	x := &exchange{
		size: size,
		down: make([]chan []epidemic.Cell, size),
		up:   make([]chan []epidemic.Cell, size),
		done: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		x.down[i] = make(chan []epidemic.Cell, 1)
		x.up[i] = make(chan []epidemic.Cell, 1)
	}
	return x
}

func (x *exchange) abort(err error) {
	if err == nil {
		err = errors.New("no reason given")
	}
	x.once.Do(func() {
		x.cause = err
		close(x.done)
	})
}

func (x *exchange) aborted() error {
	select {
	case <-x.done:
		return fmt.Errorf("%w: %w", ErrAborted, x.cause)
	default:
		return nil
	}
}

// scatter is the root side of Scatter.
func (x *exchange) scatter(ctx context.Context, send []epidemic.Cell, counts, displs []int, recv []epidemic.Cell) error {
	if err := x.aborted(); err != nil {
		return err
	}
	if err := checkLayout(x.size, len(send), counts, displs); err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	if len(recv) != counts[Root] {
		return fmt.Errorf("scatter: root receives %d cells into %d: %w", counts[Root], len(recv), ErrCountMismatch)
	}
	for i := 0; i < x.size; i++ {
		if i == Root {
			continue
		}
		seg := slices.Clone(send[displs[i] : displs[i]+counts[i]])
		select {
		case x.down[i] <- seg:
		case <-ctx.Done():
			return ctx.Err()
		case <-x.done:
			return x.aborted()
		}
	}
	copy(recv, send[displs[Root]:displs[Root]+counts[Root]])
	return nil
}

// receive is the non-root side of Scatter.
func (x *exchange) receive(ctx context.Context, rank int) ([]epidemic.Cell, error) {
	if err := x.aborted(); err != nil {
		return nil, err
	}
	select {
	case seg := <-x.down[rank]:
		return seg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-x.done:
		return nil, x.aborted()
	}
}

// submit is the non-root side of Gather.
func (x *exchange) submit(ctx context.Context, rank int, cells []epidemic.Cell) error {
	if err := x.aborted(); err != nil {
		return err
	}
	select {
	case x.up[rank] <- cells:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-x.done:
		return x.aborted()
	}
}

// collect is the root side of Gather.
func (x *exchange) collect(ctx context.Context, send, recv []epidemic.Cell, counts, displs []int) error {
	if err := x.aborted(); err != nil {
		return err
	}
	if err := checkLayout(x.size, len(recv), counts, displs); err != nil {
		return fmt.Errorf("gather: %w", err)
	}
	if len(send) != counts[Root] {
		return fmt.Errorf("gather: root sends %d cells, want %d: %w", len(send), counts[Root], ErrCountMismatch)
	}
	copy(recv[displs[Root]:], send)
	for i := 0; i < x.size; i++ {
		if i == Root {
			continue
		}
		var seg []epidemic.Cell
		select {
		case seg = <-x.up[i]:
		case <-ctx.Done():
			return ctx.Err()
		case <-x.done:
			return x.aborted()
		}
		if len(seg) != counts[i] {
			return fmt.Errorf("gather: rank %d sent %d cells, want %d: %w", i, len(seg), counts[i], ErrCountMismatch)
		}
		copy(recv[displs[i]:], seg)
	}
	return nil
}

func checkLayout(size, total int, counts, displs []int) error {
	if len(counts) != size || len(displs) != size {
		return fmt.Errorf("%d counts and %d displacements for %d ranks: %w", len(counts), len(displs), size, ErrCountMismatch)
	}
	for i := range counts {
		if counts[i] < 0 || displs[i] < 0 || displs[i]+counts[i] > total {
			return fmt.Errorf("segment %d [%d,+%d) outside %d cells: %w", i, displs[i], counts[i], total, ErrCountMismatch)
		}
	}
	return nil
}

func expectLen(op string, rank, got, want int) error {
	if got != want {
		return fmt.Errorf("%s: rank %d got %d cells, want %d: %w", op, rank, got, want, ErrCountMismatch)
	}
	return nil
}
