package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"epi-ca/internal/epidemic"
)

// Summary condenses a run into a few numbers.
type Summary struct {
	Steps      int
	Population int
	PeakSick   int
	PeakStep   int
	MeanSick   float64
	StdSick    float64
	Cured      int
	Dead       int
	// AttackRate is the share of the initial population that fell sick at
	// some point, as a fraction.
	AttackRate float64
}

// Summarize computes the summary of everything observed so far. A series
// with no steps yields the zero Summary.
func (s *Series) Summarize() Summary {
	if s.Len() == 0 {
		return Summary{}
	}
	sick := make([]float64, s.Len())
	for i, c := range s.Censuses {
		sick[i] = float64(c.Sick())
	}
	peak := floats.MaxIdx(sick)
	first, last := s.Censuses[0], s.Censuses[s.Len()-1]
	sum := Summary{
		Steps:      s.Steps[s.Len()-1],
		Population: first.Population(),
		PeakSick:   int(sick[peak]),
		PeakStep:   s.Steps[peak],
		MeanSick:   stat.Mean(sick, nil),
		Cured:      last.Of(epidemic.Cured),
		Dead:       last.Of(epidemic.Dead),
	}
	if len(sick) > 1 {
		sum.StdSick = stat.StdDev(sick, nil)
	}
	if sum.Population > 0 {
		// Everyone who left Susceptible got sick; nobody returns to it.
		infected := first.Of(epidemic.Susceptible) - last.Of(epidemic.Susceptible) + first.Sick()
		sum.AttackRate = float64(infected) / float64(sum.Population)
	}
	return sum
}
