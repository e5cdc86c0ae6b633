package epidemic

// Census counts cells per status.
type Census [NumStatuses]int

// Add records one cell.
func (c *Census) Add(cell Cell) {
	if int(cell.Status) < NumStatuses {
		c[cell.Status]++
	}
}

// Count tallies a slice of cells.
func Count(cells []Cell) Census {
	var c Census
	for i := range cells {
		c.Add(cells[i])
	}
	return c
}

// Of returns the number of cells in status s.
func (c Census) Of(s Status) int {
	if int(s) >= NumStatuses {
		return 0
	}
	return c[s]
}

// Sick returns the number of exposed, contagious and isolated cells.
func (c Census) Sick() int {
	return c[Exposed] + c[Contagious] + c[Isolated]
}

// Population returns the number of occupied cells.
func (c Census) Population() int {
	total := 0
	for s := Susceptible; int(s) < NumStatuses; s++ {
		total += c[s]
	}
	return total
}

// Total returns the number of counted cells, empty ones included.
func (c Census) Total() int {
	return c[Empty] + c.Population()
}
