package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single environmental transition
// (S, A, R, S', A') for agents which learn from individual
// transitions rather than from full timesteps.
type Transition struct {
	State      *mat.VecDense
	Action     *mat.VecDense
	Reward     float64
	Discount   float64
	NextState  *mat.VecDense
	NextAction *mat.VecDense // nil if no next action has been taken
}

// NewTransition constructs a Transition from two adjacent timesteps
// and the actions taken at each. The nextAction may be nil when the
// next action has not yet been selected.
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep, nextAction *mat.VecDense) Transition {
	return Transition{
		State:      step.Observation,
		Action:     action,
		Reward:     nextStep.Reward,
		Discount:   nextStep.Discount,
		NextState:  nextStep.Observation,
		NextAction: nextAction,
	}
}
