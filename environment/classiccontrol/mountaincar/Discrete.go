package mountaincar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// mountaincar.Discrete implements the classic control environment
// Mountain Car with discrete actions. In this environment, the agent
// controls an underpowered car in a valley between two hills. The car
// cannot drive straight up a hill and must rock back and forth,
// using its momentum to gradually climb higher.
//
// Actions are discrete, consisting of the direction to accelerate
// the car. Legal actions are in {0, 1, 2}:
//
//	Action		Meaning
//	  0			Accelerate left
//	  1			Do nothing
//	  2			Accelerate right
//
// Illegal actions will cause the environment to panic.
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Mountain Car environment with discrete
// actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep) {
	base, firstStep := newBase(t, discount)
	mountainCar := Discrete{base}

	return &mountainCar, firstStep
}

// ActionSpec returns the action specification of the environment
func (m *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// Step takes one environmental step given action a and returns the
// next timestep as a timestep.TimeStep and a bool indicating whether
// or not the episode has ended. Legal actions are in the set
// {0, 1, 2}. Actions outside this range will cause the environment
// to panic.
func (m *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	// Ensure action is 1-dimensional
	if a.Len() > ActionDims {
		panic("step: actions should be 1-dimensional")
	}

	// Discrete action in {0, 1, 2}
	action := a.AtVec(0)

	// Ensure a legal action was selected
	intAction := int(action)
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ (0, 1, 2)",
			intAction))
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	force := action - 1.0

	nextState := m.nextState(force)

	return m.update(a, nextState)
}
