package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// Goal implements the task of reaching goal states in a GridWorld.
// Transitions into a goal cell give goalReward and end the episode
// with a terminal state. All other transitions give timeStepReward.
// Episodes which do not reach a goal are cut off at a step limit.
type Goal struct {
	env.Starter
	goals          *mat.Dense // (x, y) coordinates of goal cells, one per row
	r, c           int        // total rows and columns in environment
	timeStepReward float64
	goalReward     float64
	stepLimit      env.Ender
}

// NewGoal creates and returns a new Goal task with goal cells at
// coordinates (x[i], y[i]), given that the gridworld has r rows and
// c columns
func NewGoal(s env.Starter, x, y []int, r, c int, timeStepReward,
	goalReward float64, episodeSteps int) (*Goal, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("newGoal: x length (%d) != y length (%d)",
			len(x), len(y))
	}

	coords := make([]float64, 0, 2*len(x))
	for i := range x {
		if x[i] >= c {
			return nil, fmt.Errorf("newGoal: x[%d] = %d ≥ cols = %d",
				i, x[i], c)
		} else if y[i] >= r {
			return nil, fmt.Errorf("newGoal: y[%d] = %d ≥ rows = %d",
				i, y[i], r)
		}
		coords = append(coords, float64(x[i]), float64(y[i]))
	}
	goals := mat.NewDense(len(x), 2, coords)

	stepLimit := env.NewStepLimit(episodeSteps)

	return &Goal{s, goals, r, c, timeStepReward, goalReward, stepLimit}, nil
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (g *Goal) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	if g.AtGoal(nextState) {
		return g.goalReward
	}
	return g.timeStepReward
}

// AtGoal returns whether or not the state is a goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	obs, ok := state.(mat.Vector)
	if !ok {
		r, c := state.Dims()
		if c != 1 {
			panic(fmt.Sprintf("atGoal: state should be a vector, got "+
				"(%d, %d) matrix", r, c))
		}
		obs = state.(*mat.Dense).ColView(0)
	}
	x, y := vToC(obs, g.r, g.c)

	numGoals, _ := g.goals.Dims()
	for i := 0; i < numGoals; i++ {
		goal := g.goals.RowView(i)
		if x == int(goal.AtVec(0)) && y == int(goal.AtVec(1)) {
			return true
		}
	}
	return false
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's step and end types and returns true.
// Reaching a goal cell is a terminal state, while hitting the step
// limit is a timeout.
func (g *Goal) End(t *ts.TimeStep) bool {
	if g.AtGoal(t.Observation) {
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return g.stepLimit.End(t)
}

// Min returns the minimum reward attainable in the task
func (g *Goal) Min() float64 {
	return floats.Min([]float64{g.timeStepReward, g.goalReward})
}

// Max returns the maximum reward attainable in the task
func (g *Goal) Max() float64 {
	return floats.Max([]float64{g.timeStepReward, g.goalReward})
}

// RewardSpec returns the reward specification for the task
func (g *Goal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (g *Goal) String() string {
	return fmt.Sprintf("Goal  |  Goals: %v",
		mat.Formatted(g.goals, mat.Prefix("                  ")))
}
