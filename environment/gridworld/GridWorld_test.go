package gridworld

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

func newTestEnv(t *testing.T, episodeSteps int) *GridWorld {
	t.Helper()

	// 5 x 5 grid, start bottom left, goal top right
	starter, err := NewSingleStart(0, 0, 5, 5)
	if err != nil {
		t.Fatal(err)
	}

	task, err := NewGoal(starter, []int{4}, []int{4}, 5, 5, -0.1, 1.0,
		episodeSteps)
	if err != nil {
		t.Fatal(err)
	}

	g, firstStep := New(5, 5, task, 0.99)
	if !firstStep.First() {
		t.Fatal("first timestep should have StepType First")
	}
	return g
}

func TestStepMovesAgent(t *testing.T) {
	g := newTestEnv(t, 100)

	right := mat.NewVecDense(1, []float64{1})
	step, last := g.Step(right)
	if last {
		t.Fatal("episode ended on first step")
	}

	x, y := g.Coordinates()
	if x != 1 || y != 0 {
		t.Errorf("expected agent at (1, 0), got (%d, %d)", x, y)
	}
	if step.Reward != -0.1 {
		t.Errorf("expected timestep reward -0.1, got %v", step.Reward)
	}

	// Observation is one-hot at the agent's cell
	if step.Observation.AtVec(cToInd(1, 0, 5)) != 1.0 {
		t.Error("observation not one-hot at agent position")
	}
}

func TestBoundaryMovesLeaveAgentInPlace(t *testing.T) {
	g := newTestEnv(t, 100)

	left := mat.NewVecDense(1, []float64{0})
	g.Step(left)
	down := mat.NewVecDense(1, []float64{3})
	g.Step(down)

	x, y := g.Coordinates()
	if x != 0 || y != 0 {
		t.Errorf("expected agent at (0, 0), got (%d, %d)", x, y)
	}
}

func TestReachingGoalTerminates(t *testing.T) {
	g := newTestEnv(t, 100)

	right := mat.NewVecDense(1, []float64{1})
	up := mat.NewVecDense(1, []float64{2})

	var step ts.TimeStep
	var last bool
	for i := 0; i < 4; i++ {
		step, last = g.Step(right)
		if last {
			t.Fatal("episode ended before reaching the goal")
		}
	}
	for i := 0; i < 4; i++ {
		step, last = g.Step(up)
	}

	if !last {
		t.Fatal("episode did not end at the goal")
	}
	if !step.TerminalEnd() {
		t.Error("reaching the goal should be a terminal state")
	}
	if step.Reward != 1.0 {
		t.Errorf("expected goal reward 1.0, got %v", step.Reward)
	}
	if !g.AtGoal(step.Observation) {
		t.Error("AtGoal false at the goal cell")
	}
}

func TestStepLimitTruncates(t *testing.T) {
	limit := 5
	g := newTestEnv(t, limit)

	left := mat.NewVecDense(1, []float64{0})
	var step ts.TimeStep
	var last bool
	for i := 0; i < limit; i++ {
		step, last = g.Step(left)
	}

	if !last {
		t.Fatal("episode did not end at the step limit")
	}
	if !step.Truncated() {
		t.Error("step limit should truncate, not terminate")
	}
}

func TestReset(t *testing.T) {
	g := newTestEnv(t, 100)

	right := mat.NewVecDense(1, []float64{1})
	g.Step(right)
	g.Step(right)

	step := g.Reset()
	if !step.First() {
		t.Error("reset should return a First timestep")
	}
	if x, y := g.Coordinates(); x != 0 || y != 0 {
		t.Errorf("expected agent at start (0, 0), got (%d, %d)", x, y)
	}
}

func TestStepAfterEpisodeEndPanics(t *testing.T) {
	limit := 3
	g := newTestEnv(t, limit)

	left := mat.NewVecDense(1, []float64{0})
	var last bool
	for i := 0; i < limit; i++ {
		_, last = g.Step(left)
	}
	if !last {
		t.Fatal("episode did not end at the step limit")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic stepping a finished episode")
		}
	}()
	g.Step(left)
}
