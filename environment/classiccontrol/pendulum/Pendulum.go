// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxDiscreteAction int = 4
	MinDiscreteAction int = 0

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the classic control environment Pendulum. In this
// environment, a pendulum is attached to a fixed base. An agent can
// swing the pendulum back and forth, but the swinging force/torque is
// underpowered. In order to swing the pendulum straight up, it must
// first be rocked back and forth, using the momentum to gradually
// climb higher until the pendulum can point straight up or rotate
// fully around its fixed base.
//
// State features consist of the angle of the pendulum from the
// positive y-axis and the angular velocity of the pendulum. Both
// state features are bounded by the AngleBound and SpeedBound
// constants in this package. The sign of the angular velocity
// indicates direction, with negative sign indicating counter
// clockwise rotation. The angular velocity is clipped to
// [-SpeedBound, SpeedBound]. Angles are wrapped to stay within
// [-AngleBound, AngleBound] = [-π, π].
//
// base does not implement the environment.Environment interface, but
// is embedded in Discrete which does implement this interface.
type base struct {
	env.Task
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     ts.TimeStep
	discount     float64
}

// newBase creates and returns a new base environment
func newBase(t env.Task, discount float64) (*base, ts.TimeStep) {
	angleBounds := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speedBounds := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	torqueBounds := r1.Interval{Min: -TorqueBound, Max: TorqueBound}

	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	pendulum := base{t, angleBounds, speedBounds, torqueBounds, firstStep,
		discount}

	err := validateState(state, angleBounds, speedBounds)
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}

	return &pendulum, firstStep
}

// CurrentTimeStep returns the current timestep of the environment
func (p *base) CurrentTimeStep() ts.TimeStep {
	return p.lastStep
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (p *base) Reset() ts.TimeStep {
	state := p.Start()
	err := validateState(state, p.angleBounds, p.speedBounds)
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	startStep := ts.New(ts.First, 0, p.discount, state, 0)
	p.lastStep = startStep

	return startStep
}

// nextState computes the next state of the environment given an
// amount of torque to apply to the fixed base of the pendulum. The
// torque is first clipped to the appropriate torque bounds.
func (p *base) nextState(torque float64) *mat.VecDense {
	obs := p.CurrentTimeStep().Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*math.Pow(Length, 2))*torque)*dt

	newth := th + (newthdot * dt)

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = floatutils.WrapInterval(newth, p.angleBounds)

	return mat.NewVecDense(2, []float64{newth, newthdot})
}

// update updates the base environment by constructing a new current
// TimeStep for the environment from the argument action and next
// state newState.
func (p *base) update(action, newState *mat.VecDense) (ts.TimeStep, bool) {
	if p.lastStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}

	reward := p.GetReward(p.CurrentTimeStep().Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, p.discount, newState,
		p.CurrentTimeStep().Number+1)

	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// DiscountSpec returns the discount specification of the environment
func (p *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	minObs := []float64{p.angleBounds.Min, p.speedBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.angleBounds.Max, p.speedBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (p *base) String() string {
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf("Pendulum  |  θ: %v  |  θ̇: %v", theta, thetadot)
}

// validateState checks if the state is valid and returns an error
// denoting whether the state is a valid state or not.
func validateState(obs mat.Vector, angleBounds,
	speedBounds r1.Interval) error {
	if l := obs.Len(); l != ObservationDims {
		return fmt.Errorf("illegal state length \n\twant(%v) \n\thave(%v)",
			ObservationDims, l)
	}
	if obs.AtVec(0) > angleBounds.Max || obs.AtVec(0) < angleBounds.Min {
		return fmt.Errorf("theta out of bounds %v", angleBounds)
	}
	if obs.AtVec(1) > speedBounds.Max || obs.AtVec(1) < speedBounds.Min {
		return fmt.Errorf("theta dot out of bounds %v", speedBounds)
	}
	return nil
}
