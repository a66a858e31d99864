package cartpole

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

func newTestEnv(t *testing.T, episodeSteps int) *Discrete {
	t.Helper()

	bounds := []r1.Interval{
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
	}
	starter := env.NewUniformStarter(bounds, 11)
	task := NewBalance(starter, episodeSteps, FailAngle)

	cartpole, firstStep := NewDiscrete(task, 0.99)
	if !firstStep.First() {
		t.Fatal("first timestep should have StepType First")
	}
	return cartpole
}

func TestStepUntilPoleFalls(t *testing.T) {
	cartpole := newTestEnv(t, 500)

	// Always push right so that the pole eventually falls
	action := mat.NewVecDense(1, []float64{2})

	var step ts.TimeStep
	var last bool
	for i := 0; i < 500; i++ {
		step, last = cartpole.Step(action)
		if last {
			break
		}
		if step.Reward != 1.0 {
			t.Errorf("expected reward 1.0 while balancing, got %v",
				step.Reward)
		}
	}

	if !last {
		t.Fatal("pole did not fall when pushing right constantly")
	}
	if !step.TerminalEnd() {
		t.Error("pole falling should be a terminal state, not a timeout")
	}
	if step.Reward != -1.0 {
		t.Errorf("expected reward -1.0 on failure, got %v", step.Reward)
	}
}

func TestStepLimitTruncates(t *testing.T) {
	limit := 10
	cartpole := newTestEnv(t, limit)

	// Doing nothing keeps the pole up for at least 10 steps from a
	// near-upright start
	action := mat.NewVecDense(1, []float64{1})

	var step ts.TimeStep
	var last bool
	for i := 0; i < limit; i++ {
		step, last = cartpole.Step(action)
	}

	if !last {
		t.Fatal("episode did not end at the step limit")
	}
	if !step.Truncated() {
		t.Error("step limit should truncate, not terminate")
	}
}

func TestReset(t *testing.T) {
	cartpole := newTestEnv(t, 500)

	action := mat.NewVecDense(1, []float64{0})
	for i := 0; i < 3; i++ {
		cartpole.Step(action)
	}

	step := cartpole.Reset()
	if !step.First() {
		t.Error("reset should return a First timestep")
	}
	if step.Number != 0 {
		t.Errorf("reset should restart step numbering, got %d", step.Number)
	}
	if current := cartpole.CurrentTimeStep(); !current.First() {
		t.Error("current timestep not updated on reset")
	}
}

func TestIllegalActionPanics(t *testing.T) {
	cartpole := newTestEnv(t, 500)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on illegal action")
		}
	}()
	cartpole.Step(mat.NewVecDense(1, []float64{3}))
}

func TestStepAfterEpisodeEndPanics(t *testing.T) {
	limit := 3
	cartpole := newTestEnv(t, limit)

	action := mat.NewVecDense(1, []float64{1})
	var last bool
	for i := 0; i < limit; i++ {
		_, last = cartpole.Step(action)
	}
	if !last {
		t.Fatal("episode did not end at the step limit")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic stepping a finished episode")
		}
	}()
	cartpole.Step(action)
}
