package esarsa

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/agent/linear/discrete/policy"
	"github.com/samuelfneumann/gorl/environment/gridworld"
	ts "github.com/samuelfneumann/gorl/timestep"
)

func newTestEnv(t *testing.T) *gridworld.GridWorld {
	t.Helper()

	starter, err := gridworld.NewSingleStart(0, 0, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	task, err := gridworld.NewGoal(starter, []int{4}, []int{4}, 5, 5,
		-0.1, 1.0, 100)
	if err != nil {
		t.Fatal(err)
	}

	g, _ := gridworld.New(5, 5, task, 0.99)
	return g
}

func newTestAgent(t *testing.T, g *gridworld.GridWorld, behaviourE, targetE,
	learningRate float64) *ESarsa {
	t.Helper()

	c := Config{
		BehaviourE:   behaviourE,
		TargetE:      targetE,
		LearningRate: learningRate,
	}
	a, err := c.CreateAgent(g, 42)
	if err != nil {
		t.Fatal(err)
	}
	return a.(*ESarsa)
}

// fabricatedTransition constructs a hand-built transition from state
// feature 0 to state feature 1 under action 0 and feeds it to the
// agent. The end argument sets how the transition ends its episode.
func fabricatedTransition(t *testing.T, e *ESarsa, end ts.EndType) {
	t.Helper()

	obs := mat.NewVecDense(25, nil)
	obs.SetVec(0, 1.0)
	nextObs := mat.NewVecDense(25, nil)
	nextObs.SetVec(1, 1.0)

	first := ts.New(ts.First, 0, 0.99, obs, 0)
	if err := e.ObserveFirst(first); err != nil {
		t.Fatal(err)
	}

	action := mat.NewVecDense(1, []float64{0})
	nextStep := ts.New(ts.Mid, 1.0, 0.99, nextObs, 1)
	if end != ts.Nil {
		nextStep.SetEnd(end)
	}
	if err := e.Observe(action, nextStep); err != nil {
		t.Fatal(err)
	}
	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
}

func TestExpectedUpdateMixesActionValues(t *testing.T) {
	g := newTestEnv(t)
	e := newTestAgent(t, g, 0.0, 0.5, 1.0)

	// Give each action a distinct value in the next state so the
	// expectation over the target policy is visible in the update
	w := e.Weights()[policy.WeightsKey]
	numActions, _ := w.Dims()
	for a := 0; a < numActions; a++ {
		w.Set(a, 1, float64(a))
	}

	fabricatedTransition(t, e, ts.Nil)

	// With target ε = 0.5, the greedy action (the one with the largest
	// value) gets probability 1 - ε + ε/|A|, and every other action
	// gets ε/|A|
	epsProb := 0.5 / float64(numActions)
	expectedQ := 0.0
	for a := 0; a < numActions; a++ {
		expectedQ += epsProb * float64(a)
	}
	expectedQ += (1.0 - 0.5) * float64(numActions-1)

	want := 1.0 + 0.99*expectedQ
	if got := w.At(0, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("incorrect expected update \n\twant(%v)\n\thave(%v)",
			want, got)
	}
}

func TestGreedyTargetMatchesQLearning(t *testing.T) {
	g := newTestEnv(t)
	e := newTestAgent(t, g, 0.0, 0.0, 1.0)

	w := e.Weights()[policy.WeightsKey]
	w.Set(0, 1, 5.0)

	fabricatedTransition(t, e, ts.Nil)

	// With target ε = 0, the expectation collapses to the maximum
	// action value
	want := 1.0 + 0.99*5.0
	if got := w.At(0, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("incorrect greedy update \n\twant(%v)\n\thave(%v)",
			want, got)
	}
}

func TestTerminalDropsBootstrap(t *testing.T) {
	g := newTestEnv(t)
	e := newTestAgent(t, g, 0.0, 0.1, 1.0)

	w := e.Weights()[policy.WeightsKey]
	w.Set(0, 1, 5.0)

	fabricatedTransition(t, e, ts.TerminalStateReached)

	// Target is the reward alone: 1.0
	if got := w.At(0, 0); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("terminal transition should not bootstrap: "+
			"expected weight 1.0, got %v", got)
	}
}

func TestEvalModeDoesNotLearn(t *testing.T) {
	g := newTestEnv(t)
	e := newTestAgent(t, g, 0.25, 0.1, 0.5)
	e.Eval()
	if !e.IsEval() {
		t.Fatal("agent not in evaluation mode after Eval")
	}

	fabricatedTransition(t, e, ts.Nil)

	w := e.Weights()[policy.WeightsKey]
	if got := w.At(0, 0); got != 0.0 {
		t.Errorf("weights changed in evaluation mode: got %v", got)
	}
}
