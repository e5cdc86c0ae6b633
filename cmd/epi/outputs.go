package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"epi-ca/internal/engine"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/report"
)

// addOutputFlags declares the report artefacts a root rank can produce.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("csv", "", "write the census of every step to this CSV file")
	f.String("video", "", "write an MJPEG AVI of the run to this file")
	f.Int("scale", 10, "pixels per cell in the video")
	f.Int("fps", 10, "video frames per second")
	f.String("chart", "", "write the epidemic curve PNG to this file")
	f.String("plot", "", "write the sick/cured/dead plot to this file (png, svg or pdf)")
	f.Int("log-every", 10, "log progress every N steps")
}

// outputs holds the observers opened for a run.
type outputs struct {
	observers []engine.Observer
	series    *report.Series
	closers   []func() error
	v         *viper.Viper
	log       logrus.FieldLogger
}

func openOutputs(v *viper.Viper, cfg epidemic.Config, log logrus.FieldLogger) (*outputs, error) {
	o := &outputs{series: &report.Series{}, v: v, log: log}
	o.observers = append(o.observers, o.series, report.StepLogger{Log: log, Every: v.GetInt("log-every")})
	if path := v.GetString("csv"); path != "" {
		c, err := report.CreateCensusCSV(path)
		if err != nil {
			return nil, err
		}
		o.observers = append(o.observers, c)
		o.closers = append(o.closers, c.Close)
	}
	if path := v.GetString("video"); path != "" {
		vid, err := report.NewVideo(path, cfg.Rows, cfg.Cols, v.GetInt("scale"), v.GetInt("fps"))
		if err != nil {
			o.close()
			return nil, err
		}
		o.observers = append(o.observers, vid)
		o.closers = append(o.closers, vid.Close)
	}
	return o, nil
}

func (o *outputs) close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c())
	}
	o.closers = nil
	return errors.Join(errs...)
}

// finish closes the streaming recorders, renders the curves and logs the
// summary.
func (o *outputs) finish() error {
	errs := []error{o.close()}
	if path := o.v.GetString("chart"); path != "" {
		errs = append(errs, o.series.SaveChart(path))
	}
	if path := o.v.GetString("plot"); path != "" {
		errs = append(errs, o.series.SavePlot(path))
	}
	s := o.series.Summarize()
	o.log.WithFields(logrus.Fields{
		"steps":       s.Steps,
		"population":  s.Population,
		"peak_sick":   s.PeakSick,
		"peak_step":   s.PeakStep,
		"mean_sick":   s.MeanSick,
		"cured":       s.Cured,
		"dead":        s.Dead,
		"attack_rate": s.AttackRate,
	}).Info("summary")
	return errors.Join(errs...)
}
