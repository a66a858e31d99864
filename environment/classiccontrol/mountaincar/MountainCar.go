// Package mountaincar implements the Mountain Car classic control
// environment
package mountaincar

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

const (
	// Physical constants
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	// Environment constants
	ObservationDims   int = 2
	ActionDims        int = 1
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// base implements the classic control environment Mountain Car. In
// this environment, an underpowered car sits in a valley between two
// hills. The car cannot drive straight up a hill and must rock back
// and forth from hill to hill, using its momentum to gradually climb
// higher.
//
// State feature vectors are 2-dimensional and consist of the car's
// horizontal position and velocity. The sign of the velocity feature
// denotes direction, negative meaning that the car is travelling left
// and positive meaning that the car is travelling right. Upon reaching
// the minimum or maximum position, the velocity of the car is set
// to 0.
//
// base does not implement the environment.Environment interface, but
// is embedded in Discrete which does implement this interface.
type base struct {
	env.Task
	lastStep       ts.TimeStep
	discount       float64
	positionBounds r1.Interval
	speedBounds    r1.Interval
	power          float64
	gravity        float64
}

// newBase returns a new base Mountain Car environment
func newBase(t env.Task, discount float64) (*base, ts.TimeStep) {
	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	mountainCar := base{
		Task:           t,
		lastStep:       firstStep,
		discount:       discount,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
		power:          Power,
		gravity:        Gravity,
	}

	// Ensure start state is valid
	err := validateState(state, mountainCar.positionBounds,
		mountainCar.speedBounds)
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}

	return &mountainCar, firstStep
}

// nextState returns the next state of the environment given the force
// to apply to the car
func (m *base) nextState(force float64) *mat.VecDense {
	state := m.CurrentTimeStep().Observation
	position, velocity := state.AtVec(0), state.AtVec(1)

	velocity += force*m.power - m.gravity*math.Cos(3*position)
	velocity = floatutils.ClipInterval(velocity, m.speedBounds)

	position += velocity
	position = floatutils.ClipInterval(position, m.positionBounds)

	// The car stops dead when it hits the left wall
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	return mat.NewVecDense(2, []float64{position, velocity})
}

// update updates the base environment by constructing a new current
// TimeStep for the environment from the argument action and next
// state newState.
func (m *base) update(action, newState *mat.VecDense) (ts.TimeStep, bool) {
	if m.lastStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}

	reward := m.GetReward(m.CurrentTimeStep().Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, m.discount, newState,
		m.CurrentTimeStep().Number+1)

	m.End(&nextStep)

	m.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// CurrentTimeStep returns the current timestep of the environment
func (m *base) CurrentTimeStep() ts.TimeStep {
	return m.lastStep
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (m *base) Reset() ts.TimeStep {
	state := m.Start()
	err := validateState(state, m.positionBounds, m.speedBounds)
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	startStep := ts.New(ts.First, 0, m.discount, state, 0)
	m.lastStep = startStep

	return startStep
}

// ObservationSpec returns the observation specification of the
// environment
func (m *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{m.positionBounds.Min, m.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{m.positionBounds.Max, m.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (m *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{m.discount})
	upperBound := mat.NewVecDense(1, []float64{m.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// Render draws a text-based rendering of the environment to standard
// output
func (m *base) Render() {
	xIndices := 16

	// Draw the hill
	var hill strings.Builder
	for i := 1; i < xIndices/2+1; i++ {
		if i == 1 {
			fmt.Fprint(&hill, hillRow(xIndices, i)+"🏁\n")
		} else {
			fmt.Fprintln(&hill, hillRow(xIndices, i))
		}
	}
	fmt.Fprintln(&hill, "")

	// Calculate the x position at which to draw the car
	xPos := m.CurrentTimeStep().Observation.AtVec(0)
	xPos = (xPos - m.positionBounds.Min) /
		(m.positionBounds.Max - m.positionBounds.Min)
	x := int(xPos * float64(xIndices))

	// Draw the position bar
	var builder strings.Builder
	for i := 0; i < xIndices; i++ {
		if i == x {
			fmt.Fprintf(&builder, "🚗")
		} else if i == xIndices-1 {
			fmt.Fprintf(&builder, "🏁")
		} else {
			fmt.Fprintf(&builder, "=")
		}
	}

	// Clear screen and draw
	os.Stdout.WriteString("\x1b[3;J\x1b[H\x1b[2J")
	fmt.Printf("%v%v\n", &hill, &builder)
}

// String implements the fmt.Stringer interface
func (m *base) String() string {
	state := m.CurrentTimeStep().Observation

	return fmt.Sprintf("Mountain Car  |  Position: %v  |  Speed: %v",
		state.AtVec(0), state.AtVec(1))
}

// hillRow calculates what to draw for a single row of the text-based
// rendering of the hill
func hillRow(xIndices, width int) string {
	var builder strings.Builder

	for i := 0; i < width; i++ {
		fmt.Fprintf(&builder, "=")
	}
	for i := 0; i < xIndices-(2*width); i++ {
		fmt.Fprintf(&builder, " ")
	}
	for i := 0; i < width; i++ {
		fmt.Fprintf(&builder, "=")
	}
	return builder.String()
}

// validateState checks if the state is valid and returns an error
// denoting whether the state is a valid state or not.
func validateState(state *mat.VecDense, positionBounds,
	speedBounds r1.Interval) error {
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
	return nil
}
