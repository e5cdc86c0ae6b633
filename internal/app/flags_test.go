package app

import (
	"flag"
	"testing"
)

func TestBindParsesFlags(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("epi-view", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse([]string{"-rows", "40", "-workers", "4", "-seed", "3", "-panel", "0"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Rows != 40 || cfg.Workers != 4 || cfg.Seed != 3 || cfg.Panel != 0 {
		t.Fatalf("parsed config = %+v", cfg)
	}
	sim := cfg.Simulation()
	if sim.Rows != 40 || sim.Cols != 60 || sim.Seed != 3 {
		t.Fatalf("simulation config = %+v", sim)
	}
}
