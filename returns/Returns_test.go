package returns

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/replay"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// newChain returns a replay buffer holding the argument rewards as a
// single chain of transitions. The ends argument maps transition
// indices to their end types.
func newChain(t *testing.T, rewards []float64,
	ends map[int]ts.EndType) *replay.Buffer {
	t.Helper()

	b, err := replay.NewBuffer(1, 1, len(rewards)+1)
	if err != nil {
		t.Fatal(err)
	}

	for i, r := range rewards {
		state := mat.NewVecDense(1, []float64{float64(i)})
		nextState := mat.NewVecDense(1, []float64{float64(i + 1)})
		action := mat.NewVecDense(1, []float64{0})

		step := ts.New(ts.Mid, 0, 1.0, state, i)
		nextStep := ts.New(ts.Mid, r, 1.0, nextState, i+1)
		if end, ok := ends[i]; ok {
			nextStep.SetEnd(end)
		}

		if err := b.Add(step, action, nextStep); err != nil {
			t.Fatal(err)
		}
	}
	return b
}

func closeEnough(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-10 {
			return false
		}
	}
	return true
}

func TestValueMask(t *testing.T) {
	b := newChain(t, []float64{1, 1, 1, 1},
		map[int]ts.EndType{1: ts.TerminalStateReached, 3: ts.Timeout})

	mask := ValueMask(b, []int{0, 1, 2, 3})
	want := []float64{1, 0, 1, 1}
	if !closeEnough(mask, want) {
		t.Errorf("expected mask %v, got %v", want, mask)
	}
}

func TestDiscountCumSum(t *testing.T) {
	got := DiscountCumSum(0.5, []float64{1, 1, 1})
	want := []float64{1.75, 1.5, 1}
	if !closeEnough(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := DiscountCumSum(0.9, nil); len(got) != 0 {
		t.Error("empty input should give empty output")
	}
}

func TestEpisodicTerminalDropsBootstrap(t *testing.T) {
	// Single episode of two transitions ending in a terminal state
	b := newChain(t, []float64{1, 2},
		map[int]ts.EndType{1: ts.TerminalStateReached})

	indices := []int{0, 1}
	vals := []float64{0.5, 0.25}
	nextVals := []float64{0.25, 10.0} // terminal value must be ignored
	gamma, lambda := 0.9, 1.0

	advantages, lambdaReturns, err := Episodic(b, indices, vals, nextVals,
		gamma, lambda)
	if err != nil {
		t.Fatal(err)
	}

	// δ1 = 2 + 0 - 0.25 (no bootstrap through the terminal state)
	delta1 := 2.0 - 0.25
	// δ0 = 1 + γ·0.25 - 0.5
	delta0 := 1.0 + gamma*0.25 - 0.5

	wantAdv := []float64{delta0 + gamma*lambda*delta1, delta1}
	if !closeEnough(advantages, wantAdv) {
		t.Errorf("expected advantages %v, got %v", wantAdv, advantages)
	}

	wantRet := []float64{wantAdv[0] + vals[0], wantAdv[1] + vals[1]}
	if !closeEnough(lambdaReturns, wantRet) {
		t.Errorf("expected returns %v, got %v", wantRet, lambdaReturns)
	}
}

func TestEpisodicTruncationKeepsBootstrap(t *testing.T) {
	b := newChain(t, []float64{1}, map[int]ts.EndType{0: ts.Timeout})

	indices := []int{0}
	vals := []float64{0.0}
	nextVals := []float64{2.0}
	gamma := 0.9

	advantages, _, err := Episodic(b, indices, vals, nextVals, gamma, 0.95)
	if err != nil {
		t.Fatal(err)
	}

	// Truncation bootstraps through the cut: δ = 1 + γ·2 - 0
	want := []float64{1.0 + gamma*2.0}
	if !closeEnough(advantages, want) {
		t.Errorf("expected advantages %v, got %v", want, advantages)
	}
}

func TestEpisodicDoesNotLeakAcrossEpisodes(t *testing.T) {
	// Two episodes: [0] terminal, then [1, 2] unfinished
	b := newChain(t, []float64{5, 1, 1},
		map[int]ts.EndType{0: ts.TerminalStateReached})

	indices := []int{0, 1, 2}
	vals := []float64{0, 0, 0}
	nextVals := []float64{0, 0, 0}

	advantages, _, err := Episodic(b, indices, vals, nextVals, 0.9, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	// The first episode's advantage is exactly its terminal reward
	if math.Abs(advantages[0]-5.0) > 1e-10 {
		t.Errorf("advantage leaked across episode boundary: %v",
			advantages[0])
	}
	// The second episode accumulates only its own rewards
	want1 := 1.0 + 0.9*0.9*1.0
	if math.Abs(advantages[1]-want1) > 1e-10 {
		t.Errorf("expected advantage %v, got %v", want1, advantages[1])
	}
}

func TestNStepIndices(t *testing.T) {
	// Episode [0, 1, 2] terminal, episode [3, 4] unfinished
	b := newChain(t, []float64{1, 1, 1, 1, 1},
		map[int]ts.EndType{2: ts.TerminalStateReached})

	got := NStepIndices(b, []int{0, 1, 3}, 3)
	want := []int{2, 2, 4}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("NStepIndices[%v] = %v, want %v", k, got[k], want[k])
		}
	}
}

func TestNStepTerminalDropsBootstrap(t *testing.T) {
	b := newChain(t, []float64{1, 2, 4},
		map[int]ts.EndType{2: ts.TerminalStateReached})

	gamma := 0.5

	// 3-step return from transition 0 reaches the terminal state, so
	// the bootstrap value is dropped no matter its magnitude
	got, err := NStep(b, []int{0}, 3, []float64{100.0}, gamma)
	if err != nil {
		t.Fatal(err)
	}
	want := 1.0 + gamma*2.0 + gamma*gamma*4.0
	if math.Abs(got[0]-want) > 1e-10 {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}

func TestNStepBootstrapsThroughTruncation(t *testing.T) {
	b := newChain(t, []float64{1, 2}, map[int]ts.EndType{1: ts.Timeout})

	gamma := 0.5

	got, err := NStep(b, []int{0}, 5, []float64{8.0}, gamma)
	if err != nil {
		t.Fatal(err)
	}
	// Chain stops at the timeout after 2 rewards, then bootstraps
	want := 1.0 + gamma*2.0 + gamma*gamma*8.0
	if math.Abs(got[0]-want) > 1e-10 {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}

func TestNStepOneStepIsTD(t *testing.T) {
	b := newChain(t, []float64{3, 1}, nil)

	gamma := 0.9
	got, err := NStep(b, []int{0}, 1, []float64{2.0}, gamma)
	if err != nil {
		t.Fatal(err)
	}
	want := 3.0 + gamma*2.0
	if math.Abs(got[0]-want) > 1e-10 {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}
