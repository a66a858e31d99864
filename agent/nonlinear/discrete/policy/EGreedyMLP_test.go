package policy

import (
	"bytes"
	"encoding/gob"
	"testing"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/environment/gridworld"
	"github.com/samuelfneumann/gorl/network"
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

func newTestPolicy(t *testing.T, epsilon float64, batch int) *MultiHeadEGreedyMLP {
	t.Helper()

	e := newTestEnv(t)
	p, err := NewMultiHeadEGreedyMLP(epsilon, e, batch, G.NewGraph(),
		[]int{5}, []bool{true}, G.Ones(), []*network.Activation{network.ReLU()},
		14)
	if err != nil {
		t.Fatal(err)
	}
	return p.(*MultiHeadEGreedyMLP)
}

func TestSelectActionReturnsLegalActions(t *testing.T) {
	e := newTestEnv(t)
	p, err := NewMultiHeadEGreedyMLP(0.5, e, 1, G.NewGraph(),
		[]int{5}, []bool{true}, G.Ones(), []*network.Activation{network.ReLU()},
		14)
	if err != nil {
		t.Fatal(err)
	}
	defer p.(*MultiHeadEGreedyMLP).Close()

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	step := e.Reset()
	for i := 0; i < 100; i++ {
		action := p.SelectAction(step)
		if action.Len() != 1 {
			t.Fatalf("incorrect action dimensions \n\twant(%v)\n\thave(%v)",
				1, action.Len())
		}
		a := int(action.AtVec(0))
		if a < 0 || a >= numActions {
			t.Fatalf("illegal action selected: %v", a)
		}
	}
}

func TestBatchPolicyPanicsOnSelectAction(t *testing.T) {
	p := newTestPolicy(t, 0.1, 32)
	defer p.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when selecting actions with a " +
				"batch policy")
		}
	}()
	e := newTestEnv(t)
	p.SelectAction(e.Reset())
}

func TestSetEpsilon(t *testing.T) {
	p := newTestPolicy(t, 0.1, 1)
	defer p.Close()

	p.SetEpsilon(0.25)
	if got := p.Epsilon(); got != 0.25 {
		t.Errorf("incorrect epsilon \n\twant(%v)\n\thave(%v)", 0.25, got)
	}

	p.Eval()
	if !p.IsEval() {
		t.Error("policy not in evaluation mode after Eval")
	}
	p.Train()
	if p.IsEval() {
		t.Error("policy still in evaluation mode after Train")
	}
}

func TestGobRoundTripPreservesEpsilon(t *testing.T) {
	p := newTestPolicy(t, 0.37, 1)
	defer p.Close()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		t.Fatal(err)
	}

	decoded := new(MultiHeadEGreedyMLP)
	if err := gob.NewDecoder(&buf).Decode(decoded); err != nil {
		t.Fatal(err)
	}
	defer decoded.Close()

	if decoded.Epsilon() != p.Epsilon() {
		t.Errorf("incorrect epsilon after decoding \n\twant(%v)\n\thave(%v)",
			p.Epsilon(), decoded.Epsilon())
	}
	if decoded.BatchSize() != p.BatchSize() {
		t.Errorf("incorrect batch size after decoding "+
			"\n\twant(%v)\n\thave(%v)", p.BatchSize(), decoded.BatchSize())
	}
}
