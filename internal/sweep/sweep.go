// Package sweep runs many independent epidemics over a grid of rule
// settings and ranks their outcomes.
package sweep

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"epi-ca/internal/engine"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/report"
)

// Scenario is one combination of swept settings.
type Scenario struct {
	DiseaseStrength  float64
	VaccinatedChance float64
	IsolationChance  float64
}

func (s Scenario) String() string {
	return fmt.Sprintf("strength=%.2f vaccinated=%.2f isolation=%.2f", s.DiseaseStrength, s.VaccinatedChance, s.IsolationChance)
}

func (s Scenario) apply(base epidemic.Config) epidemic.Config {
	cfg := base
	cfg.Params.DiseaseStrength = s.DiseaseStrength
	cfg.Params.VaccinatedChance = s.VaccinatedChance
	cfg.Params.IsolationChance = s.IsolationChance
	return cfg
}

// Result pairs a scenario with the summary of its run.
type Result struct {
	Scenario Scenario
	Summary  report.Summary
	Err      error
}

// Grid returns the cartesian product of the option lists. An empty list
// keeps the base value for that setting.
func Grid(base epidemic.Params, strengths, vaccinated, isolation []float64) []Scenario {
	orBase := func(opts []float64, v float64) []float64 {
		if len(opts) == 0 {
			return []float64{v}
		}
		return opts
	}
	strengths = orBase(strengths, base.DiseaseStrength)
	vaccinated = orBase(vaccinated, base.VaccinatedChance)
	isolation = orBase(isolation, base.IsolationChance)

	var sets []Scenario
	for _, s := range strengths {
		for _, v := range vaccinated {
			for _, i := range isolation {
				sets = append(sets, Scenario{DiseaseStrength: s, VaccinatedChance: v, IsolationChance: i})
			}
		}
	}
	return sets
}

// Run simulates every scenario on base with a pool of workers goroutines.
// Each scenario runs as a single in-process rank. Results come back sorted
// by attack rate, highest first; failed scenarios sort last. There is one
// result per scenario even when ctx ends early: scenarios that never started
// carry ctx's error, which Run also returns.
func Run(ctx context.Context, base epidemic.Config, sets []Scenario, workers int, opts engine.Options) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan Scenario)
	results := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				results <- runScenario(ctx, base, s, opts)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var skipped []Scenario
	go func() {
		defer close(jobs)
		for i, s := range sets {
			select {
			case jobs <- s:
			case <-ctx.Done():
				skipped = sets[i:]
				return
			}
		}
	}()

	all := make([]Result, 0, len(sets))
	for res := range results {
		all = append(all, res)
	}
	// The feeder is done with skipped once results is closed.
	for _, s := range skipped {
		all = append(all, Result{Scenario: s, Err: ctx.Err()})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if (all[i].Err == nil) != (all[j].Err == nil) {
			return all[i].Err == nil
		}
		if all[i].Summary.AttackRate != all[j].Summary.AttackRate {
			return all[i].Summary.AttackRate > all[j].Summary.AttackRate
		}
		return all[i].Scenario.String() < all[j].Scenario.String()
	})
	return all, ctx.Err()
}

func runScenario(ctx context.Context, base epidemic.Config, s Scenario, opts engine.Options) Result {
	cfg := s.apply(base)
	g, err := engine.NewGroup(cfg, 1, opts)
	if err != nil {
		return Result{Scenario: s, Err: err}
	}
	var series report.Series
	if err := g.Run(ctx, cfg.Steps, &series); err != nil {
		return Result{Scenario: s, Err: err}
	}
	return Result{Scenario: s, Summary: series.Summarize()}
}

// WriteCSV writes one row per result.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"disease_strength", "vaccinated_chance", "isolation_chance",
		"attack_rate", "peak_sick", "peak_step", "cured", "dead", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		row := []string{
			f(r.Scenario.DiseaseStrength), f(r.Scenario.VaccinatedChance), f(r.Scenario.IsolationChance),
			f(r.Summary.AttackRate), strconv.Itoa(r.Summary.PeakSick), strconv.Itoa(r.Summary.PeakStep),
			strconv.Itoa(r.Summary.Cured), strconv.Itoa(r.Summary.Dead), errText,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
