// Package acrobot implements the Acrobot classic control environment
package acrobot

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
	LinkLength1 float64 = 1.0 // Metres, length of link 1
	LinkLength2 float64 = 1.0 // Metres, length of link 2
	LinkMass1   float64 = 1.0 // Kg, mass of link 1
	LinkMass2   float64 = 1.0 // Kg, mass of link 2
	LinkCOMPos1 float64 = 0.5 // Metres, centre of mass of link 1
	LinkCOMPos2 float64 = 0.5 // Metres, centre of mass of link 2
	LinkMOI     float64 = 1.0 // Moment of inertia for both links
	Gravity     float64 = 9.8
	MaxVel1     float64 = 4 * math.Pi
	MaxVel2     float64 = 9 * math.Pi
	AngleBounds float64 = math.Pi
	MinTorque   float64 = -1.0
	MaxTorque   float64 = 1.0
	Dt          float64 = 0.2 // Seconds between state updates

	// Environment constants
	ObservationDims   int = 4
	ActionDims        int = 1
	MinDiscreteAction int = 0 // Applies MinTorque
	MaxDiscreteAction int = 2 // Applies MaxTorque
)

// base implements the classic control environment Acrobot. In this
// environment, a double-hinged, double-linked pendulum is attached to
// a single actuated fixed base. Torque can be applied to the joint
// between the two links to swing the acrobot around.
//
// State feature vectors are 4-dimensional and consist of the angles
// of both pendulum links measured from the negative y-axis and their
// angular velocities:
//
//	v ⃗	= [θ1, θ2, θ̇1, θ̇2]
//
// Angles are wrapped to stay within [-AngleBounds, AngleBounds], and
// angular velocities are clipped to stay within [-MaxVel1, MaxVel1]
// and [-MaxVel2, MaxVel2] respectively.
//
// base does not implement the environment.Environment interface, but
// is embedded in Discrete which does implement this interface.
type base struct {
	env.Task
	lastStep        ts.TimeStep
	discount        float64
	angleBounds     r1.Interval
	velocity1Bounds r1.Interval
	velocity2Bounds r1.Interval
}

// newBase returns a new base Acrobot environment
func newBase(t env.Task, discount float64) (*base, ts.TimeStep) {
	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	acrobot := base{
		Task:            t,
		lastStep:        firstStep,
		discount:        discount,
		angleBounds:     r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		velocity1Bounds: r1.Interval{Min: -MaxVel1, Max: MaxVel1},
		velocity2Bounds: r1.Interval{Min: -MaxVel2, Max: MaxVel2},
	}

	// Ensure start state is valid
	err := validateState(state, acrobot.angleBounds,
		acrobot.velocity1Bounds, acrobot.velocity2Bounds)
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}

	return &acrobot, firstStep
}

// nextState returns the next state of the environment given the
// torque to apply to the joint between the acrobot's links
func (a *base) nextState(torque float64) *mat.VecDense {
	state := a.CurrentTimeStep().Observation

	torque = floatutils.Clip(torque, MinTorque, MaxTorque)

	// Augment the state with the torque so that the dynamics can be
	// integrated as a single system
	augmented := mat.NewVecDense(state.Len()+1, nil)
	augmented.CopyVec(state)
	augmented.SetVec(augmented.Len()-1, torque)

	integrated := rk4(dsDt, augmented, []float64{0.0, Dt})
	rows, cols := integrated.Dims()
	if cols != ObservationDims+1 {
		panic("nextState: integration returned wrong number of components")
	}
	newState := integrated.RowView(rows - 1).(*mat.VecDense).SliceVec(0,
		cols-1).(*mat.VecDense)

	// Ensure state stays in an acceptable range
	newState.SetVec(0, floatutils.WrapInterval(newState.AtVec(0),
		a.angleBounds))
	newState.SetVec(1, floatutils.WrapInterval(newState.AtVec(1),
		a.angleBounds))
	newState.SetVec(2, floatutils.ClipInterval(newState.AtVec(2),
		a.velocity1Bounds))
	newState.SetVec(3, floatutils.ClipInterval(newState.AtVec(3),
		a.velocity2Bounds))

	return newState
}

// update updates the base environment by constructing a new current
// TimeStep for the environment from the argument action and next
// state newState.
func (a *base) update(action, newState *mat.VecDense) (ts.TimeStep, bool) {
	if a.lastStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}

	reward := a.GetReward(a.CurrentTimeStep().Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, a.discount, newState,
		a.CurrentTimeStep().Number+1)

	a.End(&nextStep)

	a.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// CurrentTimeStep returns the current timestep of the environment
func (a *base) CurrentTimeStep() ts.TimeStep {
	return a.lastStep
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (a *base) Reset() ts.TimeStep {
	state := a.Start()
	err := validateState(state, a.angleBounds, a.velocity1Bounds,
		a.velocity2Bounds)
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	startStep := ts.New(ts.First, 0, a.discount, state, 0)
	a.lastStep = startStep

	return startStep
}

// ObservationSpec returns the observation specification of the
// environment
func (a *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{a.angleBounds.Min, a.angleBounds.Min,
			a.velocity1Bounds.Min, a.velocity2Bounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{a.angleBounds.Max, a.angleBounds.Max,
			a.velocity1Bounds.Max, a.velocity2Bounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (a *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{a.discount})
	upperBound := mat.NewVecDense(1, []float64{a.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (a *base) String() string {
	state := a.CurrentTimeStep().Observation

	return fmt.Sprintf("Acrobot  |  θ1: %v  |  θ2: %v  |  θ̇1: %v  |  θ̇2: %v",
		state.AtVec(0), state.AtVec(1), state.AtVec(2), state.AtVec(3))
}

// validateState checks if the state is valid and returns an error
// denoting whether the state is a valid state or not.
func validateState(state *mat.VecDense, angleBounds, vel1Bounds,
	vel2Bounds r1.Interval) error {
	if l := state.Len(); l != ObservationDims {
		return fmt.Errorf("illegal state length \n\twant(%v) \n\thave(%v)",
			ObservationDims, l)
	}
	if state.AtVec(0) < angleBounds.Min || state.AtVec(0) > angleBounds.Max {
		return fmt.Errorf("angle 1 out of bounds %v", angleBounds)
	}
	if state.AtVec(1) < angleBounds.Min || state.AtVec(1) > angleBounds.Max {
		return fmt.Errorf("angle 2 out of bounds %v", angleBounds)
	}
	if state.AtVec(2) < vel1Bounds.Min || state.AtVec(2) > vel1Bounds.Max {
		return fmt.Errorf("angular velocity 1 out of bounds %v", vel1Bounds)
	}
	if state.AtVec(3) < vel2Bounds.Min || state.AtVec(3) > vel2Bounds.Max {
		return fmt.Errorf("angular velocity 2 out of bounds %v", vel2Bounds)
	}
	return nil
}

// dsDt calculates ds/dt for the environment, where s is the current
// environment state augmented with the applied torque as its last
// component
func dsDt(augmented *mat.VecDense, t float64) []float64 {
	m1 := LinkMass1
	m2 := LinkMass2
	l1 := LinkLength1
	lc1 := LinkCOMPos1
	lc2 := LinkCOMPos2
	i1 := LinkMOI
	i2 := LinkMOI
	g := Gravity

	s := augmented.SliceVec(0, augmented.Len()-1)
	torque := augmented.AtVec(augmented.Len() - 1)

	theta1 := s.AtVec(0)
	theta2 := s.AtVec(1)
	dtheta1 := s.AtVec(2)
	dtheta2 := s.AtVec(3)

	d1 := (m1*math.Pow(lc1, 2) +
		m2*(math.Pow(l1, 2)+math.Pow(lc2, 2)+2*l1*lc2*math.Cos(theta2)) +
		i1 + i2)

	d2 := m2*(math.Pow(lc2, 2)+l1*lc2*math.Cos(theta2)) + i2

	phi2 := m2 * lc2 * g * math.Cos(theta1+theta2-(math.Pi/2.0))
	phi1 := (-m2*l1*lc2*math.Pow(dtheta2, 2)*math.Sin(theta2) -
		2*m2*l1*lc2*dtheta2*dtheta1*math.Sin(theta2) +
		(m1*lc1+m2*l1)*g*math.Cos(theta1-(math.Pi/2.0)) +
		phi2)

	ddtheta2 := (torque + d2/d1*phi1 - m2*l1*lc2*math.Pow(dtheta1, 2)*
		math.Sin(theta2) - phi2) /
		(m2*math.Pow(lc2, 2) + i2 - math.Pow(d2, 2)/d1)
	ddtheta1 := -(d2*ddtheta2 + phi1) / d1

	// Last component is the torque derivative, which is 0
	return []float64{dtheta1, dtheta2, ddtheta1, ddtheta2, 0.0}
}

// rk4 integrates an n-dimensional system of ODEs using 4th-order
// Runge-Kutta over the time points t
func rk4(derivs func(*mat.VecDense, float64) []float64, y0 *mat.VecDense,
	t []float64) *mat.Dense {
	dims := y0.Len()

	yout := mat.NewDense(len(t), dims, nil)
	yout.SetRow(0, y0.RawVector().Data)

	for i := 0; i < len(t)-1; i++ {
		thist := t[i]
		dt := t[i+1] - thist
		dt2 := dt / 2.0

		y := yout.RowView(i).(*mat.VecDense)

		dsdt := derivs(y, thist)
		k1 := mat.NewVecDense(len(dsdt), dsdt)

		input := mat.NewVecDense(len(dsdt), nil)
		input.AddScaledVec(y, dt2, k1)
		dsdt = derivs(input, thist+dt2)
		k2 := mat.NewVecDense(len(dsdt), dsdt)

		input.AddScaledVec(y, dt2, k2)
		dsdt = derivs(input, thist+dt2)
		k3 := mat.NewVecDense(len(dsdt), dsdt)

		input.AddScaledVec(y, dt, k3)
		dsdt = derivs(input, thist+dt)
		k4 := mat.NewVecDense(len(dsdt), dsdt)

		row := mat.NewVecDense(k1.Len(), nil)
		row.CopyVec(k1)
		row.AddScaledVec(row, 2.0, k2)
		row.AddScaledVec(row, 2.0, k3)
		row.AddVec(row, k4)
		row.AddScaledVec(y, dt/6.0, row)

		yout.SetRow(i+1, row.RawVector().Data)
	}
	return yout
}
