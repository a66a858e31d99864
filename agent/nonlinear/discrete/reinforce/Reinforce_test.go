package reinforce

import (
	"testing"

	"github.com/samuelfneumann/gorl/environment/gridworld"
	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

func newTestEnv(t *testing.T, episodeSteps int) *gridworld.GridWorld {
	t.Helper()

	starter, err := gridworld.NewSingleStart(0, 0, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	task, err := gridworld.NewGoal(starter, []int{2}, []int{2}, 3, 3,
		-0.1, 1.0, episodeSteps)
	if err != nil {
		t.Fatal(err)
	}

	g, _ := gridworld.New(3, 3, task, 0.99)
	return g
}

func newTestConfig(t *testing.T, epochLength int) CategoricalMLPConfig {
	t.Helper()

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}
	policySolver, err := solver.NewDefaultAdam(1e-2, 1)
	if err != nil {
		t.Fatal(err)
	}
	vSolver, err := solver.NewDefaultAdam(1e-2, 1)
	if err != nil {
		t.Fatal(err)
	}

	return CategoricalMLPConfig{
		PolicyLayers:      []int{5},
		PolicyBiases:      []bool{true},
		PolicyActivations: []*network.Activation{network.ReLU()},

		ValueFnLayers:      []int{5},
		ValueFnBiases:      []bool{true},
		ValueFnActivations: []*network.Activation{network.ReLU()},

		InitWFn:      init,
		PolicySolver: policySolver,
		VSolver:      vSolver,

		ValueGradSteps: 2,
		EpochLength:    epochLength,
		Lambda:         0.95,
		Gamma:          0.99,
	}
}

func TestEpochBoundaryMidEpisode(t *testing.T) {
	// Episodes of 5 steps and epochs of 8 force epoch boundaries in
	// the middle of episodes, so data storage pauses until the next
	// episode starts
	e := newTestEnv(t, 5)
	c := newTestConfig(t, 8)

	a, err := c.CreateAgent(e, 14)
	if err != nil {
		t.Fatal(err)
	}
	r := a.(*REINFORCE)

	step := e.Reset()
	if err := r.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 40; i++ {
		action := r.SelectAction(step)
		step, _ = e.Step(action)

		if err := r.Observe(action, step); err != nil {
			t.Fatal(err)
		}
		if err := r.Step(); err != nil {
			t.Fatal(err)
		}

		if step.Last() {
			r.EndEpisode()
			step = e.Reset()
			if err := r.ObserveFirst(step); err != nil {
				t.Fatal(err)
			}
		}
	}

	// Each epoch takes 8 stored steps plus the remainder of the
	// episode it cut off, so 40 steps complete at least 2 epochs
	if r.completedEpochs < 2 {
		t.Errorf("expected at least 2 completed epochs, got %v",
			r.completedEpochs)
	}

	if err := r.Close(); err != nil {
		t.Errorf("could not close agent: %v", err)
	}
}
