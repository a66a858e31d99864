// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // Metres, half of pole length
	ForceMag       float64 = 10.0 // Magnitude of force applied
	Dt             float64 = 0.02 // Seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Environment constants
	ObservationDims   int = 4
	ActionDims        int = 1
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// base implements the classic control environment Cartpole. In this
// environment, a pole is attached to a cart, which can move
// horizontally along a frictionless track. Force can be applied to
// the cart to keep the pole balanced upright.
//
// State feature vectors are 4-dimensional and consist of the cart's
// horizontal position and speed, the pole's angle measured from the
// positive y-axis, and the pole's angular velocity:
//
//	v ⃗	= [x, ẋ, θ, θ̇]
//
// The cart position is clipped to stay within [-PositionBounds,
// PositionBounds] and the pole angle is wrapped to stay within
// [-AngleBounds, AngleBounds].
//
// base does not implement the environment.Environment interface, but
// is embedded in Discrete which does implement this interface.
type base struct {
	env.Task
	lastStep              ts.TimeStep
	discount              float64
	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// newBase returns a new base Cartpole environment
func newBase(t env.Task, discount float64) (*base, ts.TimeStep) {
	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	cartpole := base{
		Task:           t,
		lastStep:       firstStep,
		discount:       discount,
		positionBounds: r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:    r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:    r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds,
			Max: AngularVelocityBounds},
	}

	// Ensure start state is valid
	err := validateState(state, cartpole.positionBounds,
		cartpole.speedBounds, cartpole.angleBounds,
		cartpole.angularVelocityBounds)
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}

	return &cartpole, firstStep
}

// nextState returns the next state of the environment given the force
// to apply to the cart
func (c *base) nextState(force float64) *mat.VecDense {
	state := c.CurrentTimeStep().Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Euler kinematic integration
	x += (Dt * xDot)
	x = floatutils.ClipInterval(x, c.positionBounds)

	xDot += (Dt * xAcc)

	th += (Dt * thDot)
	th = floatutils.WrapInterval(th, c.angleBounds)

	thDot += (Dt * thAcc)

	return mat.NewVecDense(4, []float64{x, xDot, th, thDot})
}

// update updates the base environment by constructing a new current
// TimeStep for the environment from the argument action and next
// state newState.
//
// Discrete and continuous action versions of Cartpole calculate the
// force to apply from the action, compute the next state with
// nextState(), and then pass both to this function.
func (c *base) update(action, newState *mat.VecDense) (ts.TimeStep, bool) {
	if c.lastStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}

	reward := c.GetReward(c.CurrentTimeStep().Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.CurrentTimeStep().Number+1)

	c.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// CurrentTimeStep returns the current timestep of the environment
func (c *base) CurrentTimeStep() ts.TimeStep {
	return c.lastStep
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (c *base) Reset() ts.TimeStep {
	state := c.Start()
	err := validateState(state, c.positionBounds, c.speedBounds,
		c.angleBounds, c.angularVelocityBounds)
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	c.lastStep = startStep

	return startStep
}

// ObservationSpec returns the observation specification of the
// environment
func (c *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, lower)

	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (c *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{c.discount})
	upperBound := mat.NewVecDense(1, []float64{c.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (c *base) String() string {
	state := c.CurrentTimeStep().Observation

	return fmt.Sprintf("Cartpole  |  x: %v  |  ẋ: %v  |  θ: %v  |  θ̇: %v",
		state.AtVec(0), state.AtVec(1), state.AtVec(2), state.AtVec(3))
}

// validateState checks if the state is valid and returns an error
// denoting whether the state is a valid state or not.
func validateState(state *mat.VecDense, positionBounds, speedBounds,
	angleBounds, angularVelocityBounds r1.Interval) error {
	if l := state.Len(); l != ObservationDims {
		return fmt.Errorf("illegal state length \n\twant(%v) \n\thave(%v)",
			ObservationDims, l)
	}
	if state.AtVec(0) < positionBounds.Min ||
		state.AtVec(0) > positionBounds.Max {
		return fmt.Errorf("position out of bounds %v", positionBounds)
	}
	if state.AtVec(1) < speedBounds.Min ||
		state.AtVec(1) > speedBounds.Max {
		return fmt.Errorf("speed out of bounds %v", speedBounds)
	}
	if state.AtVec(2) < angleBounds.Min ||
		state.AtVec(2) > angleBounds.Max {
		return fmt.Errorf("angle out of bounds %v", angleBounds)
	}
	if state.AtVec(3) < angularVelocityBounds.Min ||
		state.AtVec(3) > angularVelocityBounds.Max {
		return fmt.Errorf("angular velocity out of bounds %v",
			angularVelocityBounds)
	}
	return nil
}
