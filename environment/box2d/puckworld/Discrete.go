package puckworld

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// puckworld.Discrete implements the PuckWorld environment with
// discrete actions. Actions determine the direction of the force
// applied to the puck. Legal actions are in {0, 1, 2, 3}:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Apply force right
//	  2			Apply force up
//	  3			Apply force down
//
// Illegal actions will cause the environment to panic.
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*puckWorld
}

// NewDiscrete constructs a new PuckWorld environment with discrete
// actions
func NewDiscrete(t env.Task, discount float64,
	seed uint64) (*Discrete, ts.TimeStep) {
	puckWorld, firstStep := newPuckWorld(t, discount, seed)

	return &Discrete{puckWorld}, firstStep
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
// {0, 1, 2, 3}. Actions outside this range will cause the environment
// to panic.
func (d *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	if a.Len() > ActionDims {
		panic("step: actions should be 1-dimensional")
	}

	var force box2d.B2Vec2
	switch int(a.AtVec(0)) {
	case 0:
		force = box2d.MakeB2Vec2(-ForceMag, 0.0)
	case 1:
		force = box2d.MakeB2Vec2(ForceMag, 0.0)
	case 2:
		force = box2d.MakeB2Vec2(0.0, ForceMag)
	case 3:
		force = box2d.MakeB2Vec2(0.0, -ForceMag)
	default:
		panic(fmt.Sprintf("step: illegal action %v ∉ (0, 1, 2, 3)",
			a.AtVec(0)))
	}

	return d.step(a, force)
}
