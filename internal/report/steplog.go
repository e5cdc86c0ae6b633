package report

import (
	"github.com/sirupsen/logrus"

	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// StepLogger logs the census at info level every Every steps.
type StepLogger struct {
	Log   logrus.FieldLogger
	Every int
}

func (l StepLogger) Observe(step int, v grid.View) error {
	every := l.Every
	if every < 1 {
		every = 1
	}
	if step%every != 0 {
		return nil
	}
	c := v.Census()
	l.Log.WithFields(logrus.Fields{
		"step":       step,
		"sick":       c.Sick(),
		"population": c.Population(),
		"dead":       c.Of(epidemic.Dead),
		"cured":      c.Of(epidemic.Cured),
	}).Info("progress")
	return nil
}
