package puckworld

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
)

func newTestEnv(t *testing.T, cutoff int) *Discrete {
	t.Helper()

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: PuckRadius, Max: WorldW - PuckRadius},
		{Min: PuckRadius, Max: WorldH - PuckRadius},
	}, 17)
	task := NewGather(starter, cutoff)

	p, firstStep := NewDiscrete(task, 0.99, 17)
	if !firstStep.First() {
		t.Fatal("first timestep should have StepType First")
	}
	if firstStep.Observation.Len() != ObservationDims {
		t.Fatalf("expected %d observation dims, got %d", ObservationDims,
			firstStep.Observation.Len())
	}
	return p
}

func TestRewardIsNegativeDistanceToGoal(t *testing.T) {
	p := newTestEnv(t, 1000)

	step, _ := p.Step(mat.NewVecDense(1, []float64{1}))

	if step.Reward > 0 {
		t.Errorf("reward should never be positive, got %v", step.Reward)
	}
	expected := -distanceToGoal(step.Observation)
	if step.Reward != expected {
		t.Errorf("expected reward %v, got %v", expected, step.Reward)
	}
}

func TestObservationContainsGoal(t *testing.T) {
	p := newTestEnv(t, 1000)

	gx, gy := p.Goal()
	obs := p.CurrentTimeStep().Observation
	if obs.AtVec(4) != gx || obs.AtVec(5) != gy {
		t.Error("goal position not included in observation")
	}
}

func TestPuckStaysInBox(t *testing.T) {
	p := newTestEnv(t, 10000)

	// Push in a fixed direction; the puck should bounce off the wall
	// rather than leave the box
	action := mat.NewVecDense(1, []float64{0})
	for i := 0; i < 500; i++ {
		step, last := p.Step(action)
		x, y := step.Observation.AtVec(0), step.Observation.AtVec(1)
		if x < 0 || x > WorldW || y < 0 || y > WorldH {
			t.Fatalf("puck left the box: (%v, %v)", x, y)
		}
		if last {
			p.Reset()
		}
	}
}

func TestStepLimitTruncates(t *testing.T) {
	limit := 10
	p := newTestEnv(t, limit)

	action := mat.NewVecDense(1, []float64{2})
	for i := 0; i < limit; i++ {
		step, last := p.Step(action)
		if last {
			if step.TerminalEnd() {
				// The puck found the goal before the limit
				return
			}
			if !step.Truncated() {
				t.Error("step limit should truncate, not terminate")
			}
			return
		}
	}
	t.Error("episode did not end at the step limit")
}

func TestResetResamplesGoal(t *testing.T) {
	p := newTestEnv(t, 1000)

	gx, gy := p.Goal()

	// Goals are drawn from a continuous distribution, so a repeat
	// across several resets indicates the goal is not resampled
	changed := false
	for i := 0; i < 5; i++ {
		p.Reset()
		newGx, newGy := p.Goal()
		if newGx != gx || newGy != gy {
			changed = true
		}
	}
	if !changed {
		t.Error("goal position not resampled on reset")
	}
}
