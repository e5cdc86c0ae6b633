package app

import (
	"flag"

	"epi-ca/internal/epidemic"
)

// Config represents the command-line parameters of the viewer.
type Config struct {
	Rows    int
	Cols    int
	Steps   int
	Workers int
	Threads int
	Scale   int
	TPS     int
	Panel   int
	Seed    int64
}

// NewConfig returns a Config matching the classic 600x600 window: a 60x60
// grid at ten pixels per cell, advancing a few steps per second.
func NewConfig() *Config {
	def := epidemic.DefaultConfig()
	return &Config{
		Rows:    def.Rows,
		Cols:    def.Cols,
		Steps:   def.Steps,
		Workers: 1,
		Threads: 1,
		Scale:   10,
		TPS:     5,
		Panel:   220,
		Seed:    def.Seed,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Rows, "rows", c.Rows, "grid rows")
	fs.IntVar(&c.Cols, "cols", c.Cols, "grid columns")
	fs.IntVar(&c.Steps, "steps", c.Steps, "stop advancing after this many steps (0 = never)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "in-process ranks; must divide rows")
	fs.IntVar(&c.Threads, "threads", c.Threads, "kernel threads per rank")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.IntVar(&c.Panel, "panel", c.Panel, "width of the census panel in pixels (0 hides it)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for population and reset")
}

// Simulation turns the flags into a simulation config. Other settings keep
// their defaults.
func (c *Config) Simulation() epidemic.Config {
	cfg := epidemic.DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Steps, cfg.Seed = c.Rows, c.Cols, c.Steps, c.Seed
	return cfg
}
