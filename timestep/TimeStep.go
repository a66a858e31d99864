// Package timestep implements timesteps, which are returned from
// environments on each environmental step and record everything the
// environment emitted on that step.
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the position of a timestep within an episode
type StepType int

const (
	// First denotes a timestep which is the first in an episode
	First StepType = iota

	// Mid denotes a timestep which is in the middle of an episode
	Mid

	// Last denotes a timestep which is the last in an episode
	Last
)

// String returns the string representation of a StepType
func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Mid:
		return "Mid"
	case Last:
		return "Last"
	}
	return "Invalid StepType"
}

// EndType denotes the reason why an episode ended. Episodes may end
// because the environment reached some terminal state, or because
// some timeout cut the episode off before a terminal state was
// reached. These two cases are treated differently when bootstrapping
// value estimates, so the distinction is recorded on the final
// timestep of each episode.
type EndType int

const (
	// TerminalStateReached denotes an episode which ended by reaching
	// an environmental terminal state
	TerminalStateReached EndType = iota

	// Timeout denotes an episode which was cut off at some step limit
	// before reaching a terminal state
	Timeout

	// Nil denotes a timestep which did not end an episode
	Nil
)

// String returns the string representation of an EndType
func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	case Nil:
		return "Nil"
	}
	return "Invalid EndType"
}

// TimeStep packages together all information needed about an
// environmental step
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int // Timestep number in the current episode
	EndType     EndType
}

// New returns a new TimeStep with the argument fields. The EndType of
// a new TimeStep is always Nil; enders set the EndType when an
// episode finishes.
func New(t StepType, r, discount float64, obs *mat.VecDense,
	number int) TimeStep {
	return TimeStep{t, r, discount, obs, number, Nil}
}

// First returns whether the TimeStep is the first in an episode
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether the TimeStep is within an episode
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether the TimeStep is the last in an episode
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

// TerminalEnd returns whether the TimeStep ended an episode by
// reaching an environmental terminal state
func (t TimeStep) TerminalEnd() bool {
	return t.Last() && t.EndType == TerminalStateReached
}

// Truncated returns whether the TimeStep ended an episode due to a
// timeout, cutting the episode off before a terminal state
func (t TimeStep) Truncated() bool {
	return t.Last() && t.EndType == Timeout
}

// SetEnd marks the TimeStep as the last in its episode with the
// argument end type
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.EndType = e
}

// String returns the string representation of a TimeStep
func (t TimeStep) String() string {
	return fmt.Sprintf("TimeStep | Type: %v | Reward: %v | "+
		"Observation: %v | Number: %d | End: %v", t.StepType, t.Reward,
		mat.Formatted(t.Observation.T()), t.Number, t.EndType)
}
