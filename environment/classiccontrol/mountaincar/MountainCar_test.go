package mountaincar

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

func newTestEnv(t *testing.T, bounds []r1.Interval,
	episodeSteps int) *Discrete {
	t.Helper()

	starter := env.NewUniformStarter(bounds, 11)
	task := NewGoal(starter, episodeSteps, GoalPosition)

	mountainCar, firstStep := NewDiscrete(task, 0.99)
	if !firstStep.First() {
		t.Fatal("first timestep should have StepType First")
	}
	return mountainCar
}

func valleyStart() []r1.Interval {
	return []r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}
}

func TestStepLimitTruncates(t *testing.T) {
	limit := 200
	mountainCar := newTestEnv(t, valleyStart(), limit)

	// Full throttle right from the valley floor cannot climb the hill,
	// so the episode runs into the step limit
	action := mat.NewVecDense(1, []float64{2})

	var step ts.TimeStep
	var last bool
	for i := 0; i < limit; i++ {
		step, last = mountainCar.Step(action)
		if last {
			break
		}
		if step.Reward != -1.0 {
			t.Errorf("expected reward -1.0 before the goal, got %v",
				step.Reward)
		}
	}

	if !last {
		t.Fatal("episode did not end at the step limit")
	}
	if !step.Truncated() {
		t.Error("step limit should truncate, not terminate")
	}
}

func TestGoalTerminates(t *testing.T) {
	// Start just below the goal with maximum speed toward it
	bounds := []r1.Interval{
		{Min: 0.3, Max: 0.3},
		{Min: MaxSpeed, Max: MaxSpeed},
	}
	mountainCar := newTestEnv(t, bounds, 1000)

	action := mat.NewVecDense(1, []float64{2})

	var step ts.TimeStep
	var last bool
	for i := 0; i < 1000; i++ {
		step, last = mountainCar.Step(action)
		if last {
			break
		}
	}

	if !last {
		t.Fatal("car did not reach the goal")
	}
	if !step.TerminalEnd() {
		t.Error("reaching the goal should be a terminal state")
	}
	if step.Reward != 0.0 {
		t.Errorf("expected reward 0.0 at the goal, got %v", step.Reward)
	}
	if step.Observation.AtVec(0) < GoalPosition {
		t.Errorf("episode ended below the goal position: %v",
			step.Observation.AtVec(0))
	}
}

func TestLeftWallStopsCar(t *testing.T) {
	mountainCar := newTestEnv(t, valleyStart(), 1000)

	// Full throttle left runs the car into the left wall
	action := mat.NewVecDense(1, []float64{0})

	for i := 0; i < 200; i++ {
		step, _ := mountainCar.Step(action)
		position := step.Observation.AtVec(0)
		velocity := step.Observation.AtVec(1)

		if position < MinPosition {
			t.Fatalf("position %v out of bounds", position)
		}
		if position == MinPosition && velocity < 0 {
			t.Fatalf("car should stop dead at the left wall, "+
				"got velocity %v", velocity)
		}
	}
}

func TestReset(t *testing.T) {
	mountainCar := newTestEnv(t, valleyStart(), 1000)

	action := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 3; i++ {
		mountainCar.Step(action)
	}

	step := mountainCar.Reset()
	if !step.First() {
		t.Error("reset should return a First timestep")
	}
	if step.Number != 0 {
		t.Errorf("reset should restart step numbering, got %d", step.Number)
	}
	if current := mountainCar.CurrentTimeStep(); !current.First() {
		t.Error("current timestep not updated on reset")
	}
}

func TestIllegalActionPanics(t *testing.T) {
	mountainCar := newTestEnv(t, valleyStart(), 1000)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on illegal action")
		}
	}()
	mountainCar.Step(mat.NewVecDense(1, []float64{3}))
}
