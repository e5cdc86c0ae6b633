package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"epi-ca/internal/comm"
	"epi-ca/internal/engine"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Host the root rank and wait for workers over TCP",
		PreRunE: c.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.simulation()
			workers := c.v.GetInt("workers")
			if _, err := grid.NewPlan(cfg.Rows, cfg.Cols, workers); err != nil {
				return err
			}
			manifest, err := epidemic.EncodeConfig(cfg)
			if err != nil {
				return err
			}
			hub, err := comm.Listen(c.v.GetString("listen"), workers, manifest, c.log)
			if err != nil {
				return err
			}
			defer hub.Close()

			joinCtx, cancel := context.WithTimeout(ctx, c.v.GetDuration("join-timeout"))
			err = hub.WaitJoined(joinCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("waiting for workers: %w", err)
			}

			out, err := openOutputs(c.v, cfg, c.log)
			if err != nil {
				return err
			}
			if err := engine.Run(ctx, hub.Comm(), cfg, c.options(), out.observers...); err != nil {
				out.close()
				return err
			}
			leaveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := hub.Shutdown(leaveCtx); err != nil {
				c.log.WithError(err).Warn("workers did not leave cleanly")
			}
			return out.finish()
		},
	}
	cmd.Flags().String("listen", ":7070", "address to accept workers on")
	cmd.Flags().Int("workers", 2, "number of ranks including this one; must divide rows")
	cmd.Flags().Duration("join-timeout", time.Minute, "how long to wait for workers")
	addOutputFlags(cmd)
	return cmd
}

func (c *cli) workCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "work",
		Short:   "Join a hub as a worker rank",
		PreRunE: c.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			name := c.v.GetString("name")
			if name == "" {
				name, _ = os.Hostname()
			}
			dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			r, err := comm.Dial(dialCtx, c.v.GetString("hub"), name)
			cancel()
			if err != nil {
				return err
			}
			defer r.Close()
			cfg, err := epidemic.DecodeConfig(r.Manifest())
			if err != nil {
				r.Abort(err)
				return err
			}
			log := c.log.WithFields(logrus.Fields{"rank": r.Rank(), "size": r.Size()})
			log.WithField("steps", cfg.Steps).Info("joined")
			if err := engine.Run(ctx, r, cfg, c.options()); err != nil {
				return err
			}
			log.Info("done")
			return nil
		},
	}
	cmd.Flags().String("hub", "localhost:7070", "hub address")
	cmd.Flags().String("name", "", "worker name shown in hub logs (default: hostname)")
	return cmd
}
