package pendulum

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
)

func newTestEnv(t *testing.T, maxSteps int) *Discrete {
	t.Helper()

	bounds := []r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1.0, Max: 1.0},
	}
	starter := env.NewUniformStarter(bounds, 13)
	task := NewSwingUp(starter, maxSteps)

	pendulum, firstStep := NewDiscrete(task, 0.99)
	if !firstStep.First() {
		t.Fatal("first timestep should have StepType First")
	}
	return pendulum
}

func TestRewardIsCosineOfAngle(t *testing.T) {
	pendulum := newTestEnv(t, 100)

	action := mat.NewVecDense(1, []float64{4})
	step, _ := pendulum.Step(action)

	expected := math.Cos(step.Observation.AtVec(0))
	if math.Abs(step.Reward-expected) > 1e-10 {
		t.Errorf("expected reward %v, got %v", expected, step.Reward)
	}
}

func TestStateStaysWithinBounds(t *testing.T) {
	pendulum := newTestEnv(t, 1000)

	// Apply maximum torque repeatedly to spin the pendulum
	action := mat.NewVecDense(1, []float64{4})
	for i := 0; i < 500; i++ {
		step, last := pendulum.Step(action)
		th := step.Observation.AtVec(0)
		thdot := step.Observation.AtVec(1)

		if th < -AngleBound || th > AngleBound {
			t.Fatalf("angle %v outside [-π, π]", th)
		}
		if thdot < -SpeedBound || thdot > SpeedBound {
			t.Fatalf("angular velocity %v outside bounds", thdot)
		}
		if last {
			break
		}
	}
}

func TestSwingUpEndsWithTimeout(t *testing.T) {
	limit := 20
	pendulum := newTestEnv(t, limit)

	action := mat.NewVecDense(1, []float64{2})
	var last bool
	for i := 0; i < limit; i++ {
		_, last = pendulum.Step(action)
	}

	if !last {
		t.Fatal("episode did not end at the step limit")
	}
	if !pendulum.CurrentTimeStep().Truncated() {
		t.Error("swing up episodes should always end with a timeout")
	}
}
