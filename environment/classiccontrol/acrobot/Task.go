package acrobot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

const (
	// Goal height in the classic control problem is to swing the tip
	// of the second link one link length above the fixed base. Both
	// links have the same length.
	GoalHeight float64 = LinkLength1

	// maxReward is given on the transition reaching the goal height,
	// and minReward is given on all other timesteps
	maxReward, minReward float64 = 0.0, -1.0
)

// SwingUp implements the classic control Acrobot task of swinging the
// tip of the second link above some set height.
//
// The task is a cost-to-goal task. A reward of -1.0 is given on all
// timesteps except for the timestep which transitions the acrobot's
// second link above the goal height, which yields a reward of 0.0.
//
// Episodes end when the acrobot's second link swings above the goal
// height (a terminal state) or at a step limit (a timeout).
type SwingUp struct {
	env.Starter
	stepLimiter env.Ender

	atHeight      func(*mat.VecDense) bool
	heightLimiter env.Ender
}

// NewSwingUp returns a new SwingUp task with start state distribution
// defined by s, episodic step limit episodeSteps, and goal height
// goalHeight. For the default classic control case, the goal height
// should be set to the GoalHeight constant defined in this package.
func NewSwingUp(s env.Starter, episodeSteps int,
	goalHeight float64) *SwingUp {
	stepLimiter := env.NewStepLimit(episodeSteps)

	atHeight := func(obs *mat.VecDense) bool {
		if obs.Len() < 2 {
			panic(fmt.Sprintf("atHeight: state must consist of at least "+
				"two features \n\twant(>= 2) \n\thave(%v)", obs.Len()))
		}

		// Height of the tip of the second link above the fixed base
		return -math.Cos(obs.AtVec(0))-
			math.Cos(obs.AtVec(1)+obs.AtVec(0)) > goalHeight
	}

	heightLimiter := env.NewFunctionEnder(atHeight, ts.TerminalStateReached)

	return &SwingUp{s, stepLimiter, atHeight, heightLimiter}
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's step and end types and returns true.
// Otherwise, the function does not adjust the TimeStep and returns
// false. Swinging above the goal height is a terminal state, while
// hitting the step limit is a timeout, so the height is checked first.
func (s *SwingUp) End(t *ts.TimeStep) bool {
	if end := s.heightLimiter.End(t); end {
		return true
	}
	if end := s.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState. This is a
// cost-to-goal task, so rewards are -1.0 for all transitions except
// those which swing the second link above the goal height, which
// yield 0.0.
func (s *SwingUp) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	if s.atHeight(toVecDense(nextState)) {
		return maxReward
	}
	return minReward
}

// AtGoal returns whether or not the state is a goal state. Goal states
// are those in which the tip of the second link is above the goal
// height.
func (s *SwingUp) AtGoal(state mat.Matrix) bool {
	rows, cols := state.Dims()
	if cols > 1 {
		panic("atGoal: state must consist of a single observation")
	}

	stateVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		stateVec.SetVec(i, state.At(i, 0))
	}
	return s.atHeight(stateVec)
}

// Min returns the minimum attainable reward over all timesteps
func (s *SwingUp) Min() float64 { return minReward }

// Max returns the maximum attainable reward over all timesteps
func (s *SwingUp) Max() float64 { return maxReward }

// RewardSpec returns the reward specification of the task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Discrete)
}

// toVecDense converts a mat.Vector to a *mat.VecDense
func toVecDense(v mat.Vector) *mat.VecDense {
	if vec, ok := v.(*mat.VecDense); ok {
		return vec
	}

	vec := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		vec.SetVec(i, v.AtVec(i))
	}
	return vec
}
