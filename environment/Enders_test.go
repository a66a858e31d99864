package environment

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	ts "github.com/samuelfneumann/gorl/timestep"
)

func TestStepLimitEndsWithTimeout(t *testing.T) {
	ender := NewStepLimit(5)
	obs := mat.NewVecDense(1, []float64{0.0})

	step := ts.New(ts.Mid, 0, 1.0, obs, 4)
	if ender.End(&step) {
		t.Error("episode ended before the step limit")
	}

	step = ts.New(ts.Mid, 0, 1.0, obs, 5)
	if !ender.End(&step) {
		t.Error("episode did not end at the step limit")
	}
	if !step.Truncated() {
		t.Error("step limit should record a timeout")
	}
	if step.TerminalEnd() {
		t.Error("step limit should not record a terminal state")
	}
}

func TestIntervalLimitEndsOutsideInterval(t *testing.T) {
	intervals := []r1.Interval{{Min: -1.0, Max: 1.0}}
	ender := NewIntervalLimit(intervals, []int{1}, ts.TerminalStateReached)

	inside := ts.New(ts.Mid, 0, 1.0,
		mat.NewVecDense(2, []float64{5.0, 0.5}), 1)
	if ender.End(&inside) {
		t.Error("episode ended with feature inside the interval")
	}

	outside := ts.New(ts.Mid, 0, 1.0,
		mat.NewVecDense(2, []float64{0.0, 1.5}), 2)
	if !ender.End(&outside) {
		t.Error("episode did not end with feature outside the interval")
	}
	if !outside.TerminalEnd() {
		t.Error("interval limit did not record its end type")
	}
}

func TestFunctionEnder(t *testing.T) {
	ender := NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) > 10.0
	}, ts.TerminalStateReached)

	step := ts.New(ts.Mid, 0, 1.0, mat.NewVecDense(1, []float64{3.0}), 1)
	if ender.End(&step) {
		t.Error("episode ended when the function returned false")
	}

	step = ts.New(ts.Mid, 0, 1.0, mat.NewVecDense(1, []float64{11.0}), 2)
	if !ender.End(&step) {
		t.Error("episode did not end when the function returned true")
	}
}

func TestUniformStarterWithinBounds(t *testing.T) {
	bounds := []r1.Interval{
		{Min: -0.5, Max: 0.5},
		{Min: 1.0, Max: 2.0},
	}
	starter := NewUniformStarter(bounds, 42)

	for i := 0; i < 100; i++ {
		start := starter.Start()
		if start.Len() != len(bounds) {
			t.Fatalf("expected %d features, got %d", len(bounds),
				start.Len())
		}
		for j, interval := range bounds {
			if start.AtVec(j) < interval.Min ||
				start.AtVec(j) > interval.Max {
				t.Errorf("feature %d outside bounds: %v", j,
					start.AtVec(j))
			}
		}
	}
}

func TestCategoricalStarterWithinBounds(t *testing.T) {
	bounds := []int{3, 5}
	starter := NewCategoricalStarter(bounds, 7)

	for i := 0; i < 100; i++ {
		start := starter.Start()
		for j, bound := range bounds {
			value := start.AtVec(j)
			if value != float64(int(value)) {
				t.Errorf("feature %d not integral: %v", j, value)
			}
			if value < 0 || value >= float64(bound) {
				t.Errorf("feature %d outside [0, %d): %v", j, bound,
					value)
			}
		}
	}
}
