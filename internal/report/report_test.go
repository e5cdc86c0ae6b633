package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// view builds a 2x3 grid with the given statuses.
func view(statuses ...epidemic.Status) grid.View {
	cells := make([]epidemic.Cell, len(statuses))
	for i, s := range statuses {
		cells[i].Status = s
	}
	return grid.NewView(2, 3, cells)
}

var (
	S, E, C, I, R, D, X = epidemic.Susceptible, epidemic.Exposed, epidemic.Contagious,
		epidemic.Isolated, epidemic.Cured, epidemic.Dead, epidemic.Empty
)

// outbreak is a tiny hand-made epidemic over four steps.
func outbreak() []grid.View {
	return []grid.View{
		view(S, S, S, C, X, X),
		view(E, S, E, C, X, X),
		view(C, S, C, I, X, X),
		view(R, S, D, R, X, X),
	}
}

func observeAll(t *testing.T, o interface {
	Observe(int, grid.View) error
}) {
	t.Helper()
	for step, v := range outbreak() {
		if err := o.Observe(step, v); err != nil {
			t.Fatalf("observe %d: %v", step, err)
		}
	}
}

func TestCensusCSV(t *testing.T) {
	var buf bytes.Buffer
	c := NewCensusCSV(&buf)
	observeAll(t, c)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want header + 4", len(rows))
	}
	if !slices.Equal(rows[0], Header()) {
		t.Fatalf("header = %v", rows[0])
	}
	want := []string{"3", "2", "1", "0", "0", "0", "2", "1", "4"}
	if !slices.Equal(rows[4], want) {
		t.Fatalf("last row = %v, want %v", rows[4], want)
	}
}

func TestCreateCensusCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "census.csv")
	c, err := CreateCensusCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	observeAll(t, c)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 5 {
		t.Fatalf("file has %d lines, want 5", n)
	}
}

func TestStepLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	observeAll(t, StepLogger{Log: log, Every: 2})
	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want steps 0 and 2", len(entries))
	}
	last := entries[1]
	if last.Level != logrus.InfoLevel || last.Data["step"] != 2 || last.Data["sick"] != 3 {
		t.Fatalf("entry = %v %v", last.Level, last.Data)
	}
}

func TestSeriesSummary(t *testing.T) {
	var s Series
	observeAll(t, &s)
	sum := s.Summarize()
	if sum.Steps != 3 || sum.Population != 4 {
		t.Fatalf("steps/population = %d/%d", sum.Steps, sum.Population)
	}
	if sum.PeakSick != 3 || sum.PeakStep != 1 {
		t.Fatalf("peak = %d at %d, want 3 at 1", sum.PeakSick, sum.PeakStep)
	}
	if sum.MeanSick != 1.75 {
		t.Fatalf("mean sick = %v, want 1.75", sum.MeanSick)
	}
	if sum.Cured != 2 || sum.Dead != 1 {
		t.Fatalf("cured/dead = %d/%d", sum.Cured, sum.Dead)
	}
	if math.Abs(sum.AttackRate-0.75) > 1e-12 {
		t.Fatalf("attack rate = %v, want 0.75", sum.AttackRate)
	}
	share := s.Share(epidemic.Dead)
	if share[3] != 25 {
		t.Fatalf("dead share = %v", share)
	}
	if (&Series{}).Summarize() != (Summary{}) {
		t.Fatal("empty series should summarize to zero")
	}
}

func TestCurvesNeedTwoSteps(t *testing.T) {
	var s Series
	s.Observe(0, outbreak()[0])
	dir := t.TempDir()
	if err := s.SaveChart(filepath.Join(dir, "c.png")); !errors.Is(err, ErrTooFewSteps) {
		t.Fatalf("SaveChart error = %v", err)
	}
	if err := s.SavePlot(filepath.Join(dir, "p.png")); !errors.Is(err, ErrTooFewSteps) {
		t.Fatalf("SavePlot error = %v", err)
	}
}

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatalf("%s is empty", path)
	}
}

func TestSaveCurves(t *testing.T) {
	var s Series
	observeAll(t, &s)
	dir := t.TempDir()
	chartPath := filepath.Join(dir, "curve.png")
	if err := s.SaveChart(chartPath); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, chartPath)
	plotPath := filepath.Join(dir, "sick.png")
	if err := s.SavePlot(plotPath); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, plotPath)
}

func TestVideo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.avi")
	v, err := NewVideo(path, 2, 3, 4, 10)
	if err != nil {
		t.Fatal(err)
	}
	observeAll(t, v)
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}
	if v.Frames() != 4 {
		t.Fatalf("frames = %d", v.Frames())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatal("video is not a RIFF container")
	}
}
