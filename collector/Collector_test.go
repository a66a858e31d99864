package collector

import (
	"runtime"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/environment/gridworld"
	"github.com/samuelfneumann/gorl/replay"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// constantPolicy always selects the same action
type constantPolicy struct {
	action float64
	eval   bool
}

func (c *constantPolicy) SelectAction(t ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{c.action})
}

func (c *constantPolicy) Eval()        { c.eval = true }
func (c *constantPolicy) Train()       { c.eval = false }
func (c *constantPolicy) IsEval() bool { return c.eval }

// newTestEnv returns a 3x3 gridworld whose episodes are cut off after
// episodeSteps steps
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

	g, _ := gridworld.New(3, 3, task, 1.0)
	return g
}

func newTestCollector(t *testing.T, numEnvs, episodeSteps,
	capacity int) *Collector {
	t.Helper()

	envs := make([]env.Environment, numEnvs)
	for i := range envs {
		envs[i] = newTestEnv(t, episodeSteps)
	}

	buffer, err := replay.NewVectorBuffer(numEnvs, 9, 1, capacity, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Always move left, so the agent stays at the start and episodes
	// end only at the step limit
	c, err := New(&constantPolicy{action: 0}, envs, buffer)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCollectStoresAllTransitions(t *testing.T) {
	c := newTestCollector(t, 3, 100, 50)

	stats, err := c.Collect(10)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Steps != 30 {
		t.Errorf("expected 30 transitions, got %v", stats.Steps)
	}
	if c.Buffer().Len() != 30 {
		t.Errorf("expected buffer length 30, got %v", c.Buffer().Len())
	}
	if stats.Episodes != 0 {
		t.Errorf("no episode should finish in 10 steps, got %v",
			stats.Episodes)
	}
}

func TestCollectCountsEpisodesOnce(t *testing.T) {
	// Episodes are truncated after 5 steps, so 12 steps per
	// environment finish exactly 2 episodes each
	c := newTestCollector(t, 2, 5, 50)

	stats, err := c.Collect(12)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Episodes != 4 {
		t.Errorf("expected 4 finished episodes, got %v", stats.Episodes)
	}

	// Every episode is 5 steps of -0.1 reward
	if stats.MeanReturn != -0.5 {
		t.Errorf("expected mean return -0.5, got %v", stats.MeanReturn)
	}
	if stats.MeanEpisodeLength != 5 {
		t.Errorf("expected mean episode length 5, got %v",
			stats.MeanEpisodeLength)
	}
	if stats.StdReturn != 0 {
		t.Errorf("expected zero return deviation, got %v", stats.StdReturn)
	}
}

func TestCollectEpisodes(t *testing.T) {
	c := newTestCollector(t, 2, 4, 50)

	stats, err := c.CollectEpisodes(3)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Episodes != 3 {
		t.Errorf("expected 3 finished episodes, got %v", stats.Episodes)
	}
	if stats.Steps != 12 {
		t.Errorf("expected 12 transitions, got %v", stats.Steps)
	}
}

func TestTransitionsLandInOwnSubBuffer(t *testing.T) {
	c := newTestCollector(t, 2, 100, 50)

	if _, err := c.Collect(5); err != nil {
		t.Fatal(err)
	}

	// Sub-buffer layout assigns environment i the global indices
	// [i*capacity, (i+1)*capacity). Both sub-buffers should hold
	// 5 transitions, so indices 0 and 50 must be valid and chained
	// within their own environments.
	b := c.Buffer()
	if next := b.Next(0); next != 1 {
		t.Errorf("expected next of 0 to be 1, got %v", next)
	}
	if next := b.Next(50); next != 51 {
		t.Errorf("expected next of 50 to be 51, got %v", next)
	}
}

func TestResetClearsAccumulators(t *testing.T) {
	c := newTestCollector(t, 1, 10, 50)

	if _, err := c.Collect(7); err != nil {
		t.Fatal(err)
	}
	c.Reset()

	// After a reset the running episode starts from scratch: 10 more
	// steps finish exactly one full episode of return -1.0
	stats, err := c.Collect(10)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodes != 1 {
		t.Fatalf("expected 1 finished episode, got %v", stats.Episodes)
	}
	if stats.MeanReturn != -1.0 {
		t.Errorf("expected return -1.0, got %v", stats.MeanReturn)
	}
}

func TestCollectErrorLeavesNoGoroutines(t *testing.T) {
	envs := []env.Environment{newTestEnv(t, 100), newTestEnv(t, 100)}

	// Feature size 5 does not match the gridworld's 9-dimensional
	// observations, so every buffer Add fails
	buffer, err := replay.NewVectorBuffer(2, 5, 1, 50, 1)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(&constantPolicy{action: 0}, envs, buffer)
	if err != nil {
		t.Fatal(err)
	}

	before := runtime.NumGoroutine()
	if _, err := c.Collect(10); err == nil {
		t.Fatal("expected an error storing mismatched transitions")
	}

	// The environment goroutines and the channel closer finish
	// shortly after Collect returns
	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines left behind by the error path: "+
			"\n\twant(<= %v)\n\thave(%v)", before, after)
	}
}
