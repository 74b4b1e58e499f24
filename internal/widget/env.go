package widget

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/manip"
)

// Env carries what every widget needs to build its gesture engine.
type Env struct {
	Sched  manip.Scheduler
	Config manip.Config
	// Clock overrides time.Now for the inertia replay.
	Clock func() time.Time
	// OnTick receives inertia ticks instead of the widget stepping itself.
	OnTick func()
	Log    *logrus.Entry
}

func (e Env) logger(component string) *logrus.Entry {
	if e.Log != nil {
		return e.Log.WithField("widget", component)
	}
	return logrus.StandardLogger().WithField("component", "widget").WithField("widget", component)
}

func (e Env) engine(cb manip.Callbacks, mask manip.Manipulations, log *logrus.Entry) (*manip.Engine, error) {
	if e.Sched == nil {
		return nil, errors.New("widget: nil scheduler")
	}
	opts := []manip.Option{manip.WithManipulations(mask), manip.WithLogger(log)}
	if e.Clock != nil {
		opts = append(opts, manip.WithClock(e.Clock))
	}
	if e.OnTick != nil {
		opts = append(opts, manip.WithTickHandler(e.OnTick))
	}
	return manip.NewEngine(cb, e.Sched, e.Config, opts...)
}
