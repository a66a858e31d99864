package pendulum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// pendulum.Discrete implements the classic control environment
// Pendulum with discrete actions. Actions determine the torque to
// apply to the pendulum at its fixed base. Legal actions are in
// {0, 1, 2, 3, 4}:
//
//	Action		Torque
//	  0			-TorqueBound
//	  1			-TorqueBound / 2
//	  2			 0
//	  3			 TorqueBound / 2
//	  4			 TorqueBound
//
// Illegal actions will cause the environment to panic.
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete creates and returns a new Pendulum environment with
// discrete actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)

	pendulum := Discrete{baseEnv}

	return &pendulum, firstStep
}

// Step takes one environmental step given action a and returns the
// next timestep as a timestep.TimeStep and a bool indicating whether
// or not the episode has ended. Legal actions are in the set
// {0, 1, 2, 3, 4}. Actions outside this range will cause the
// environment to panic.
func (p *Discrete) Step(action *mat.VecDense) (ts.TimeStep, bool) {
	// Ensure action is 1-dimensional
	if action.Len() > ActionDims {
		panic("step: actions should be 1-dimensional")
	}

	// Convert discrete action to torque applied to fixed base
	var torque float64
	switch int(action.AtVec(0)) {
	case 0:
		torque = -TorqueBound
	case 1:
		torque = -TorqueBound / 2.0
	case 2:
		torque = 0.0
	case 3:
		torque = TorqueBound / 2.0
	case 4:
		torque = TorqueBound
	default:
		panic(fmt.Sprintf("step: illegal action %v", action.AtVec(0)))
	}

	nextState := p.nextState(torque)

	return p.update(action, nextState)
}

// ActionSpec returns the action specification of the environment
func (p *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)

	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}
