package puckworld

import (
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// GoalRadius is the distance from the goal within which the puck is
// considered to have reached it
const GoalRadius float64 = PuckRadius * 2

// puckWorldTask is a Task which needs access to the puckWorld
// environment it runs in
type puckWorldTask interface {
	env.Task
	registerEnv(*puckWorld)
	reset()
}

// Gather implements the task of driving the puck to the goal
// position. Rewards are the negative Euclidean distance between the
// puck and the goal, so rewards increase smoothly as the puck
// approaches the goal. Reaching the goal ends the episode with a
// terminal state. Episodes which do not reach the goal are cut off
// at a step limit.
type Gather struct {
	env.Starter
	stepLimit env.Ender

	env *puckWorld
}

// NewGather returns a new Gather task. The starter s provides puck
// starting positions and cutoff is the episode step limit.
func NewGather(s env.Starter, cutoff int) env.Task {
	stepLimit := env.NewStepLimit(cutoff)

	return &Gather{Starter: s, stepLimit: stepLimit}
}

func (g *Gather) registerEnv(env *puckWorld) {
	g.env = env
}

func (g *Gather) reset() {}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (g *Gather) GetReward(_, _, nextState mat.Vector) float64 {
	return -distanceToGoal(nextState)
}

// AtGoal returns whether the puck is within GoalRadius of the goal
// in the argument state
func (g *Gather) AtGoal(state mat.Matrix) bool {
	obs, ok := state.(mat.Vector)
	if !ok {
		panic("atGoal: state should be a vector")
	}
	return distanceToGoal(obs) < GoalRadius
}

// End checks if a TimeStep is the last in an episode. Reaching the
// goal is a terminal state, while hitting the step limit is a
// timeout.
func (g *Gather) End(t *ts.TimeStep) bool {
	if g.AtGoal(t.Observation) {
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return g.stepLimit.End(t)
}

// Min returns the minimum possible reward, the negative diagonal of
// the box
func (g *Gather) Min() float64 {
	return -distanceToGoal(mat.NewVecDense(ObservationDims,
		[]float64{0, 0, 0, 0, WorldW, WorldH}))
}

// Max returns the maximum possible reward
func (g *Gather) Max() float64 {
	return 0.0
}

// RewardSpec returns the reward specification for the task
func (g *Gather) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
