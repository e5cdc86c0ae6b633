// Package report records a run: census tables, progress logs, video and
// epidemic curves. Every recorder is an engine.Observer.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// CensusCSV writes one row per observed step: the step number, the count of
// every status and the living population.
type CensusCSV struct {
	w      *csv.Writer
	closer io.Closer
	header bool
	row    []string
}

// NewCensusCSV writes to w. The caller owns w.
func NewCensusCSV(w io.Writer) *CensusCSV {
	return &CensusCSV{w: csv.NewWriter(w)}
}

// CreateCensusCSV writes to a new file at path.
func CreateCensusCSV(path string) (*CensusCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create census %s: %w", path, err)
	}
	c := NewCensusCSV(f)
	c.closer = f
	return c, nil
}

// Header lists the CSV columns.
func Header() []string {
	h := []string{"step"}
	for s := epidemic.Empty; int(s) < epidemic.NumStatuses; s++ {
		h = append(h, s.String())
	}
	return append(h, "population")
}

func (c *CensusCSV) Observe(step int, v grid.View) error {
	if !c.header {
		if err := c.w.Write(Header()); err != nil {
			return fmt.Errorf("write census header: %w", err)
		}
		c.header = true
	}
	census := v.Census()
	c.row = append(c.row[:0], strconv.Itoa(step))
	for s := epidemic.Empty; int(s) < epidemic.NumStatuses; s++ {
		c.row = append(c.row, strconv.Itoa(census.Of(s)))
	}
	c.row = append(c.row, strconv.Itoa(census.Population()))
	if err := c.w.Write(c.row); err != nil {
		return fmt.Errorf("write census step %d: %w", step, err)
	}
	return nil
}

// Close flushes buffered rows and closes the file, if this recorder opened one.
func (c *CensusCSV) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
