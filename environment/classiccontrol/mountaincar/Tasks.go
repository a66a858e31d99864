package mountaincar

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

const (
	// Commonly used goal position
	GoalPosition float64 = 0.45
)

// Goal implements the classic control Mountain Car task of reaching
// a goal position at the top of the right hill. Since the car is
// underpowered, it must rock back and forth from hill to hill until
// it gathers enough momentum to reach the goal.
//
// Rewards are -1 on each timestep and 0 for the action which
// transitions the car to the goal.
//
// Episodes end when the car reaches the goal position (a terminal
// state) or at a step limit (a timeout).
type Goal struct {
	env.Starter
	goalLimiter env.Ender
	stepLimiter env.Ender
	goalX       float64
}

// NewGoal creates and returns a new Goal task given a Starter, which
// determines the starting states; the maximum number of episode steps;
// and the goal x position.
func NewGoal(s env.Starter, episodeSteps int, goalX float64) *Goal {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legalPositions := []r1.Interval{{Min: math.Inf(-1), Max: goalX}}
	positionFeatureIndex := []int{0}

	goalLimiter := env.NewIntervalLimit(legalPositions,
		positionFeatureIndex, ts.TerminalStateReached)

	return &Goal{s, goalLimiter, stepLimiter, goalX}
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's step and end types and returns true.
// Otherwise, the function does not adjust the TimeStep and returns
// false. Reaching the goal is a terminal state, while hitting the
// step limit is a timeout, so the goal is checked first.
func (g *Goal) End(t *ts.TimeStep) bool {
	if end := g.goalLimiter.End(t); end {
		return true
	}
	if end := g.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState. This is a
// cost-to-goal task, so rewards are -1.0 for all transitions except
// those reaching the goal state, which yield 0.0.
func (g *Goal) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	if nextState.AtVec(0) >= g.goalX {
		return 0.0
	}
	return -1.0
}

// AtGoal returns whether or not the state is a goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= g.goalX
}

// Min returns the minimum attainable reward over all timesteps
func (g *Goal) Min() float64 { return -1.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *Goal) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the task
func (g *Goal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Discrete)
}
