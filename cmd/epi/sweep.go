package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"epi-ca/internal/sweep"
)

func (c *cli) sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Run one epidemic per combination of rule settings and rank the outcomes",
		PreRunE: c.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := c.simulation()
			strengths, err := floatList(c.v, "strength")
			if err != nil {
				return err
			}
			vaccinated, err := floatList(c.v, "vaccinated")
			if err != nil {
				return err
			}
			isolation, err := floatList(c.v, "isolation")
			if err != nil {
				return err
			}
			sets := sweep.Grid(base.Params, strengths, vaccinated, isolation)
			workers := c.v.GetInt("parallel")

			c.log.WithFields(logrus.Fields{"scenarios": len(sets), "parallel": workers, "steps": base.Steps}).Info("sweeping")
			start := time.Now()
			opts := c.options()
			quiet := logrus.New()
			quiet.SetOutput(c.log.Out)
			quiet.SetFormatter(c.log.Formatter)
			quiet.SetLevel(logrus.WarnLevel)
			opts.Log = quiet
			results, err := sweep.Run(cmd.Context(), base, sets, workers, opts)
			if err != nil {
				return fmt.Errorf("sweep stopped after %d of %d scenarios: %w", finished(results), len(sets), err)
			}

			for i, r := range results {
				if i == c.v.GetInt("top") {
					break
				}
				entry := c.log.WithFields(logrus.Fields{
					"rank":        i + 1,
					"scenario":    r.Scenario.String(),
					"attack_rate": r.Summary.AttackRate,
					"peak_sick":   r.Summary.PeakSick,
					"dead":        r.Summary.Dead,
				})
				if r.Err != nil {
					entry.WithError(r.Err).Warn("scenario failed")
					continue
				}
				entry.Info("result")
			}
			c.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("sweep complete")

			if path := c.v.GetString("out"); path != "" {
				out, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := sweep.WriteCSV(out, results); err != nil {
					out.Close()
					return err
				}
				return out.Close()
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Slice("strength", []float64{1.2, 2.4, 3.6}, "disease strengths to try")
	f.Float64Slice("vaccinated", []float64{0.3, 0.5, 0.7}, "vaccinated shares to try")
	f.Float64Slice("isolation", []float64{0.5, 0.9}, "isolation chances to try")
	f.Int("parallel", runtime.NumCPU(), "scenarios simulated at once")
	f.Int("top", 5, "results to log")
	f.String("out", "", "write every result to this CSV file")
	return cmd
}

func finished(results []sweep.Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// floatList reads a list of numbers from a flag ("[1.2,2.4]"), an
// environment variable ("1.2,2.4") or a YAML sequence.
func floatList(v *viper.Viper, key string) ([]float64, error) {
	var items []string
	switch raw := v.Get(key).(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.Split(strings.Trim(raw, "[]"), ",")
	case []string:
		items = raw
	case []float64:
		return raw, nil
	case []any:
		for _, x := range raw {
			items = append(items, fmt.Sprint(x))
		}
	default:
		return nil, fmt.Errorf("%s: %T is not a list of numbers", key, raw)
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, f)
	}
	return out, nil
}
