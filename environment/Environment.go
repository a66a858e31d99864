// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when and how episodes end. An Ender inspects each
// new timestep and, if the episode should finish at that step, sets
// the step's end type and returns true.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme and start and end conditions for
// acting in some environment. Tasks determine the purpose of an agent
// in an environment, and a single environment may have many different
// tasks. For example, a task in a gridworld may be to reach some goal
// state, or to avoid some penalty states for as long as possible.
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for a (state, action, nextState)
	// transition
	GetReward(state mat.Vector, action mat.Vector,
		nextState mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	Min() float64
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	fmt.Stringer

	// Reset resets the environment to some starting state, returning
	// the first timestep of the new episode
	Reset() ts.TimeStep

	// Step takes one environmental step given some action, returning
	// the next timestep and whether it is the last in the episode
	Step(action *mat.VecDense) (ts.TimeStep, bool)

	// CurrentTimeStep returns the last timestep of the environment
	CurrentTimeStep() ts.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
