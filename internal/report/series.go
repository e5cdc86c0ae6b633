package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// ErrTooFewSteps is returned when a curve is requested from fewer than two
// observed steps.
var ErrTooFewSteps = errors.New("report: need at least two observed steps")

// curveStatuses are the statuses drawn on epidemic curves.
var curveStatuses = []epidemic.Status{
	epidemic.Susceptible,
	epidemic.Exposed,
	epidemic.Contagious,
	epidemic.Isolated,
	epidemic.Cured,
	epidemic.Dead,
}

// Series keeps the census of every observed step.
type Series struct {
	Steps    []int
	Censuses []epidemic.Census
}

func (s *Series) Observe(step int, v grid.View) error {
	s.Steps = append(s.Steps, step)
	s.Censuses = append(s.Censuses, v.Census())
	return nil
}

// Len returns the number of observed steps.
func (s *Series) Len() int { return len(s.Steps) }

// Share returns the percentage of the living population in status st at
// every observed step.
func (s *Series) Share(st epidemic.Status) []float64 {
	out := make([]float64, len(s.Censuses))
	for i, c := range s.Censuses {
		if pop := c.Population(); pop > 0 {
			out[i] = 100 * float64(c.Of(st)) / float64(pop)
		}
	}
	return out
}

// Counts returns the number of cells in status st at every observed step.
func (s *Series) Counts(st epidemic.Status) []float64 {
	out := make([]float64, len(s.Censuses))
	for i, c := range s.Censuses {
		out[i] = float64(c.Of(st))
	}
	return out
}

func (s *Series) xs() []float64 {
	out := make([]float64, len(s.Steps))
	for i, step := range s.Steps {
		out[i] = float64(step)
	}
	return out
}

// SaveChart renders the epidemic curve as a PNG with go-chart.
func (s *Series) SaveChart(path string) error {
	if s.Len() < 2 {
		return ErrTooFewSteps
	}
	xs := s.xs()
	series := make([]chart.Series, 0, len(curveStatuses))
	for _, st := range curveStatuses {
		series = append(series, chart.ContinuousSeries{
			Name:    st.String(),
			XValues: xs,
			YValues: s.Share(st),
			Style:   chart.Style{StrokeColor: chartColor(st.Color()), StrokeWidth: 2},
		})
	}
	graph := chart.Chart{
		Title:  "Epidemic curve",
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name:  "Step",
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "Share of population (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}

// chartColor keeps white statuses visible on the white chart background.
func chartColor(c color.RGBA) drawing.Color {
	if c.R == 0xFF && c.G == 0xFF && c.B == 0xFF {
		c = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	}
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// SavePlot renders the sick, cured and dead counts with gonum/plot. The
// format follows the file extension.
func (s *Series) SavePlot(path string) error {
	if s.Len() < 2 {
		return ErrTooFewSteps
	}
	p := plot.New()
	p.Title.Text = "Sick, cured and dead"
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Cells"

	xs := s.xs()
	line := func(ys []float64) plotter.XYs {
		pts := make(plotter.XYs, len(xs))
		for i := range pts {
			pts[i].X = xs[i]
			pts[i].Y = ys[i]
		}
		return pts
	}
	sick := make([]float64, len(s.Censuses))
	for i, c := range s.Censuses {
		sick[i] = float64(c.Sick())
	}
	err := plotutil.AddLinePoints(p,
		"sick", line(sick),
		"cured", line(s.Counts(epidemic.Cured)),
		"dead", line(s.Counts(epidemic.Dead)),
	)
	if err != nil {
		return fmt.Errorf("plot lines: %w", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
