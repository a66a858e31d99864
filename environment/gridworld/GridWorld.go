// Package gridworld implements 2D gridworld environments
package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

const (
	// Discrete actions
	MinDiscreteAction int = 0 // Move left
	MaxDiscreteAction int = 3 // Move down

	ActionDims int = 1
)

// GridWorld implements a 2D gridworld environment. The agent occupies
// a single cell of an r x c grid and can move between adjacent cells.
//
// State observations are one-hot vectors of length r*c, with the
// single 1.0 denoting the cell the agent occupies. Cell (x, y) is
// flattened to index y*c + x.
//
// Actions are discrete in {0, 1, 2, 3}:
//
//	Action		Meaning
//	  0			Move left
//	  1			Move right
//	  2			Move up
//	  3			Move down
//
// Moves that would leave the grid leave the agent in place.
//
// GridWorld implements the environment.Environment interface
type GridWorld struct {
	env.Task
	r, c     int
	position int // flattened index of the agent's cell
	discount float64
	lastStep ts.TimeStep
}

// New creates a new r x c GridWorld with task t and discount factor
// discount
func New(r, c int, t env.Task, discount float64) (*GridWorld, ts.TimeStep) {
	start := t.Start()
	if start.Len() != r*c {
		panic(fmt.Sprintf("new: start state length %v != grid size %v",
			start.Len(), r*c))
	}

	firstStep := ts.New(ts.First, 0.0, discount, start, 0)

	g := &GridWorld{t, r, c, vToInd(start, r, c), discount, firstStep}

	return g, firstStep
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.r, g.c
}

// Coordinates returns the (x, y) coordinates of the agent's cell
func (g *GridWorld) Coordinates() (int, int) {
	y := g.position / g.c
	x := g.position - (y * g.c)
	return x, y
}

// CurrentTimeStep returns the current timestep of the environment
func (g *GridWorld) CurrentTimeStep() ts.TimeStep {
	return g.lastStep
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (g *GridWorld) Reset() ts.TimeStep {
	start := g.Start()
	g.position = vToInd(start, g.r, g.c)

	startStep := ts.New(ts.First, 0, g.discount, start, 0)
	g.lastStep = startStep

	return startStep
}

// Step takes one environmental step given action a and returns the
// next timestep as a timestep.TimeStep and a bool indicating whether
// or not the episode has ended. Legal actions are in the set
// {0, 1, 2, 3}. Actions outside this range will cause the environment
// to panic.
func (g *GridWorld) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	if g.lastStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}
	if a.Len() > ActionDims {
		panic("step: actions should be 1-dimensional")
	}

	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ (0, 1, 2, 3)",
			action))
	}

	x, y := g.Coordinates()
	newX, newY := move(x, y, action, g.r, g.c)
	g.position = cToInd(newX, newY, g.c)
	newState := cToV(newX, newY, g.r, g.c)

	reward := g.GetReward(g.lastStep.Observation, a, newState)
	nextStep := ts.New(ts.Mid, reward, g.discount, newState,
		g.lastStep.Number+1)

	g.End(&nextStep)

	g.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// ActionSpec returns the action specification of the environment
func (g *GridWorld) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (g *GridWorld) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(g.r*g.c, nil)
	lowerBound := mat.NewVecDense(g.r*g.c, nil)

	upper := make([]float64, g.r*g.c)
	for i := range upper {
		upper[i] = 1.0
	}
	upperBound := mat.NewVecDense(g.r*g.c, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Discrete)
}

// DiscountSpec returns the discounting specification of the
// environment
func (g *GridWorld) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.discount})
	upperBound := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (g *GridWorld) String() string {
	x, y := g.Coordinates()
	return fmt.Sprintf("GridWorld  |  At: (%d, %d)  |  Bounds: (%d, %d)",
		x, y, g.r, g.c)
}

// move returns the coordinates reached by taking action from cell
// (x, y) in an r x c grid. Moves off the grid leave the agent in
// place.
func move(x, y, action, r, c int) (int, int) {
	switch action {
	case 0: // Left
		if newX := x - 1; newX >= 0 {
			return newX, y
		}
	case 1: // Right
		if newX := x + 1; newX < c {
			return newX, y
		}
	case 2: // Up
		if newY := y + 1; newY < r {
			return x, newY
		}
	case 3: // Down
		if newY := y - 1; newY >= 0 {
			return x, newY
		}
	}
	return x, y
}

// cToV converts coordinates (x, y) to a one-hot state vector
func cToV(x, y, r, c int) *mat.VecDense {
	vec := mat.NewVecDense(r*c, nil)
	vec.SetVec(cToInd(x, y, c), 1.0)
	return vec
}

// vToC converts a one-hot state vector into the (x, y) coordinates
// of its single 1.0 value
func vToC(v mat.Vector, r, c int) (int, int) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0.0 {
			y := i / c
			x := i - (y * c)
			return x, y
		}
	}
	return -1, -1
}

// cToInd converts coordinates (x, y) to a flattened index
func cToInd(x, y, c int) int {
	return y*c + x
}

// vToInd converts a one-hot state vector to a flattened index
func vToInd(v mat.Vector, r, c int) int {
	x, y := vToC(v, r, c)
	return cToInd(x, y, c)
}
