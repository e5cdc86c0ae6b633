package main

import (
	"github.com/spf13/cobra"

	"epi-ca/internal/engine"
)

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run every rank in this process",
		PreRunE: c.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.simulation()
			g, err := engine.NewGroup(cfg, c.v.GetInt("workers"), c.options())
			if err != nil {
				return err
			}
			out, err := openOutputs(c.v, cfg, c.log)
			if err != nil {
				return err
			}
			if err := g.Run(cmd.Context(), cfg.Steps, out.observers...); err != nil {
				out.close()
				return err
			}
			return out.finish()
		},
	}
	cmd.Flags().Int("workers", 1, "number of ranks; must divide rows")
	addOutputFlags(cmd)
	return cmd
}
