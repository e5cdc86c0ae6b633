//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"epi-ca/internal/app"
	"epi-ca/internal/engine"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	sim, err := engine.NewSim(cfg.Simulation(), cfg.Workers, engine.Options{
		Threads: cfg.Threads,
		Log:     logrus.StandardLogger(),
	})
	if err != nil {
		log.Fatalf("epidemic: %v", err)
	}

	game := app.New(sim, cfg.Scale, cfg.Panel, cfg.Steps, cfg.Seed)
	size := sim.Size()

	ebiten.SetWindowTitle("epi-ca: " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+cfg.Panel, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
