package tracker

import (
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/timestep"
)

// registeredTracker binds a Tracker to a specific Environment so that
// the Tracker records data from that Environment only. The TimeStep
// argument to Track is ignored, and the registered Environment's
// current TimeStep is tracked in its place.
//
// This is useful when an experiment runs on an environment wrapper but
// the data of the wrapped environment is needed. For example, if an
// experiment runs on an average-reward wrapper, registering the wrapped
// environment with a Return Tracker records the episodic return rather
// than the differential return.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register binds a Tracker to an Environment, returning a Tracker that
// records data from the argument Environment only.
//
// Note: the underlying concrete type of the argument Tracker is lost
// when registering an Environment with it.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track on the bound Tracker using the most recent
// TimeStep of the registered Environment. The argument TimeStep is
// ignored.
func (r *registeredTracker) Track(timestep.TimeStep) {
	r.Tracker.Track(r.env.CurrentTimeStep())
}
