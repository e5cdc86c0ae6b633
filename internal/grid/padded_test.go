package grid

import (
	"errors"
	"slices"
	"testing"

	"epi-ca/internal/epidemic"
)

// tagged returns a grid whose cells encode their logical position in
// InfectionTime as y*cols+x.
func tagged(rows, cols int) *Padded {
	p := NewPadded(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			p.Set(x, y, epidemic.Cell{Status: epidemic.Susceptible, InfectionTime: int32(y*cols + x)})
		}
	}
	return p
}

func TestReplicateHaloCopiesWrapRows(t *testing.T) {
	p := tagged(3, 4)
	p.ReplicateHalo()
	if !slices.Equal(p.Row(-1), p.Row(2)) {
		t.Fatal("top halo must mirror the last row")
	}
	if !slices.Equal(p.Row(3), p.Row(0)) {
		t.Fatal("bottom halo must mirror the first row")
	}
	if got := p.Cells()[0].InfectionTime; got != 8 {
		t.Fatalf("padded[0] tag = %d, want 8", got)
	}
}

func TestReplicateHaloIdempotent(t *testing.T) {
	p := tagged(4, 5)
	p.ReplicateHalo()
	once := slices.Clone(p.Cells())
	p.ReplicateHalo()
	if !slices.Equal(once, p.Cells()) {
		t.Fatal("second replication changed the grid")
	}
}

func TestNeighborsWrapColumns(t *testing.T) {
	p := tagged(4, 4)
	p.ReplicateHalo()

	nb := p.Neighbors(0, 1)
	if got := nb[epidemic.Left].InfectionTime; got != 1*4+3 {
		t.Fatalf("left of (0,1) is tag %d, want column 3", got)
	}
	nb = p.Neighbors(3, 1)
	if got := nb[epidemic.Right].InfectionTime; got != 1*4+0 {
		t.Fatalf("right of (3,1) is tag %d, want column 0", got)
	}
}

func TestNeighborsOrderAndHaloRows(t *testing.T) {
	p := tagged(4, 4)
	p.ReplicateHalo()

	nb := p.Neighbors(0, 0)
	want := []int32{
		3*4 + 3, 3*4 + 0, 3*4 + 1,
		0*4 + 3, 0*4 + 1,
		1*4 + 3, 1*4 + 0, 1*4 + 1,
	}
	for i, w := range want {
		if nb[i].InfectionTime != w {
			t.Fatalf("neighbor %d of (0,0) is tag %d, want %d", i, nb[i].InfectionTime, w)
		}
	}

	nb = p.Neighbors(2, 3)
	if nb[epidemic.Bottom].InfectionTime != 2 || nb[epidemic.Top].InfectionTime != 2*4+2 {
		t.Fatalf("vertical neighbours of (2,3): top %d bottom %d", nb[epidemic.Top].InfectionTime, nb[epidemic.Bottom].InfectionTime)
	}
}

func TestNeighborsReadStagedHaloNotWrap(t *testing.T) {
	p := tagged(2, 3)
	top := p.Row(-1)
	for i := range top {
		top[i] = epidemic.Cell{Status: epidemic.Contagious, InfectionTime: 100}
	}
	nb := p.Neighbors(1, 0)
	if nb[epidemic.Top].InfectionTime != 100 {
		t.Fatal("row above the block must come from the halo row")
	}
}

func TestWrapPaddedValidatesLength(t *testing.T) {
	if _, err := WrapPadded(2, 2, make([]epidemic.Cell, 7)); !errors.Is(err, ErrBlockSize) {
		t.Fatalf("short slice error = %v", err)
	}
	p, err := WrapPadded(2, 2, make([]epidemic.Cell, 8))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Interior()) != 4 {
		t.Fatalf("interior len = %d", len(p.Interior()))
	}
}

func TestViewStatuses(t *testing.T) {
	p := NewPadded(2, 2)
	p.Set(1, 1, epidemic.Cell{Status: epidemic.Dead})
	v := p.View()
	got := v.Statuses(nil)
	if !slices.Equal(got, []uint8{0, 0, 0, uint8(epidemic.Dead)}) {
		t.Fatalf("statuses = %v", got)
	}
	if v.Census().Of(epidemic.Dead) != 1 || v.Census().Of(epidemic.Empty) != 3 {
		t.Fatalf("census = %v", v.Census())
	}
}
