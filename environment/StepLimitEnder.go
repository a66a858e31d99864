package environment

import ts "github.com/samuelfneumann/gorl/timestep"

// StepLimit implements the Ender interface to end episodes at a
// specific timestep limit. Episodes ended by a StepLimit are cut off
// before reaching a terminal state, so the end is recorded as a
// timeout.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended, End() will modify the timestep so that it is
// flagged as the last in the episode with a Timeout end type.
func (s StepLimit) End(t *ts.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.SetEnd(ts.Timeout)
		return true
	}
	return false
}
