package acrobot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// acrobot.Discrete implements the classic control environment Acrobot
// with discrete actions. In this environment, a double-linked
// pendulum hangs from a fixed base, and torque can be applied to the
// joint between the two links to swing the acrobot around.
//
// Actions are discrete, consisting of the torque to apply to the
// joint. Legal actions are in {0, 1, 2}:
//
//	Action		Meaning
//	  0			Apply torque MinTorque
//	  1			Apply no torque
//	  2			Apply torque MaxTorque
//
// Illegal actions will cause the environment to panic.
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Acrobot environment with discrete
// actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep) {
	base, firstStep := newBase(t, discount)
	acrobot := Discrete{base}

	return &acrobot, firstStep
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() env.Spec {
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
func (d *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool) {
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

	// Convert action (0, 1, 2) to a torque (-1, 0, 1)
	torque := action - 1.0

	nextState := d.nextState(torque)

	return d.update(a, nextState)
}
