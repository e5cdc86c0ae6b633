package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"epi-ca/internal/engine"
	"epi-ca/internal/epidemic"
)

func quiet() engine.Options {
	log := logrus.New()
	log.Out = io.Discard
	return engine.Options{Log: log}
}

func TestGridIsCartesian(t *testing.T) {
	base := epidemic.DefaultParams()
	sets := Grid(base, []float64{1, 2}, nil, []float64{0.1, 0.5, 0.9})
	if len(sets) != 6 {
		t.Fatalf("got %d scenarios, want 6", len(sets))
	}
	for _, s := range sets {
		if s.VaccinatedChance != base.VaccinatedChance {
			t.Fatalf("unswept setting changed: %v", s)
		}
	}
	if sets[0] != (Scenario{DiseaseStrength: 1, VaccinatedChance: base.VaccinatedChance, IsolationChance: 0.1}) {
		t.Fatalf("first scenario = %v", sets[0])
	}
}

func TestRunRanksByAttackRate(t *testing.T) {
	base := epidemic.DefaultConfig()
	base.Rows, base.Cols, base.Steps = 12, 12, 30
	base.Params.SeedExposedChance = 0.05
	base.Params.EmptyChance = 0
	// Without susceptibility the disease strength alone decides spread.
	base.Params.ChildSusceptibility = 0
	base.Params.AdultSusceptibility = 0
	base.Params.ElderSusceptibility = 0
	base.Params.RiskBonus = 0
	sets := Grid(base.Params, []float64{0, 8}, []float64{0.7}, []float64{0.9})
	results, err := Run(context.Background(), base, sets, 2, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%v: %v", r.Scenario, r.Err)
		}
	}
	if results[0].Scenario.DiseaseStrength != 8 {
		t.Fatalf("strongest disease should rank first, got %v", results[0].Scenario)
	}
	if results[0].Summary.AttackRate <= results[1].Summary.AttackRate {
		t.Fatalf("attack rates not descending: %v then %v", results[0].Summary.AttackRate, results[1].Summary.AttackRate)
	}
}

func TestRunReportsBadScenarios(t *testing.T) {
	base := epidemic.DefaultConfig()
	base.Rows = 1
	results, err := Run(context.Background(), base, Grid(base.Params, nil, nil, nil), 1, quiet())
	if err != nil {
		t.Fatalf("a failed scenario should not fail the sweep: %v", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want one failure", results)
	}
}

func TestRunAccountsForEveryScenarioWhenCancelled(t *testing.T) {
	base := epidemic.DefaultConfig()
	base.Rows, base.Cols, base.Steps = 6, 6, 4
	sets := Grid(base.Params, []float64{1, 2}, []float64{0.3, 0.7}, []float64{0.5, 0.9})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, base, sets, 2, quiet())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(results) != len(sets) {
		t.Fatalf("got %d results for %d scenarios", len(results), len(sets))
	}
	for _, r := range results {
		if r.Err == nil {
			t.Fatalf("%v finished under a cancelled context", r.Scenario)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	results := []Result{{Scenario: Scenario{DiseaseStrength: 2.4, VaccinatedChance: 0.7, IsolationChance: 0.9}}}
	results[0].Summary.AttackRate = 0.25
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "2.4" || rows[1][3] != "0.25" {
		t.Fatalf("rows = %v", rows)
	}
}
