package network

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

// newTestMLP returns an MLP with a single hidden ReLU layer of 4
// units and all weights set to 1
func newTestMLP(t *testing.T, features, batch, outputs int) NeuralNet {
	t.Helper()

	g := G.NewGraph()
	net, err := NewMultiHeadMLP(features, batch, outputs, g, []int{4},
		[]bool{true}, G.Ones(), []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func forward(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	if err := net.SetInput(input); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	return net.Output()[0].Data().([]float64)
}

func TestForwardPass(t *testing.T) {
	net := newTestMLP(t, 2, 1, 3)

	if net.Features() != 2 {
		t.Errorf("expected 2 features, got %v", net.Features())
	}
	if net.BatchSize() != 1 {
		t.Errorf("expected batch size 1, got %v", net.BatchSize())
	}
	if net.Outputs() != 3 {
		t.Errorf("expected 3 outputs, got %v", net.Outputs())
	}
	if net.OutputLayers() != 1 {
		t.Errorf("expected 1 output layer, got %v", net.OutputLayers())
	}

	// With all weights and biases equal to 1: each hidden unit
	// computes relu(1 + 2 + 1) = 4, and each output 4*4 + 1 = 17
	out := forward(t, net, []float64{1, 2})
	if len(out) != 3 {
		t.Fatalf("expected 3 output values, got %v", len(out))
	}
	for i := range out {
		if math.Abs(out[i]-17.0) > 1e-10 {
			t.Errorf("expected output %v to be 17, got %v", i, out[i])
		}
	}
}

func TestSetCopiesWeights(t *testing.T) {
	source := newTestMLP(t, 2, 1, 1)

	g := G.NewGraph()
	dest, err := NewMultiHeadMLP(2, 1, 1, g, []int{4}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	if err := dest.Set(source); err != nil {
		t.Fatal(err)
	}

	input := []float64{1, 2}
	want := forward(t, source, input)
	got := forward(t, dest, input)
	if math.Abs(got[0]-want[0]) > 1e-10 {
		t.Errorf("expected output %v after Set, got %v", want[0], got[0])
	}
}

func TestPolyakInterpolatesWeights(t *testing.T) {
	source := newTestMLP(t, 1, 1, 1)

	g := G.NewGraph()
	dest, err := NewMultiHeadMLP(1, 1, 1, g, []int{4}, []bool{true},
		G.Zeroes(), []*Activation{Identity()})
	if err != nil {
		t.Fatal(err)
	}

	if err := dest.Polyak(source, 0.5); err != nil {
		t.Fatal(err)
	}

	// All destination weights started at 0 and all source weights
	// are 1, so every weight should now be 0.5
	for _, learnable := range dest.Learnables() {
		for _, w := range learnable.Value().Data().([]float64) {
			if math.Abs(w-0.5) > 1e-10 {
				t.Fatalf("expected weight 0.5 after Polyak, got %v", w)
			}
		}
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestMLP(t, 2, 1, 1)

	clone, err := net.CloneWithBatch(3)
	if err != nil {
		t.Fatal(err)
	}

	if clone.BatchSize() != 3 {
		t.Errorf("expected batch size 3, got %v", clone.BatchSize())
	}
	if clone.Features() != net.Features() {
		t.Errorf("clone changed the number of features")
	}
	if clone.Graph() == net.Graph() {
		t.Error("clone shares the graph of the original")
	}

	out := forward(t, clone, []float64{1, 2, 1, 2, 1, 2})
	if len(out) != 3 {
		t.Fatalf("expected 3 predictions, got %v", len(out))
	}
	for i := 1; i < len(out); i++ {
		if math.Abs(out[i]-out[0]) > 1e-10 {
			t.Errorf("identical inputs gave different predictions")
		}
	}
}

func TestGobRoundTrip(t *testing.T) {
	net := newTestMLP(t, 2, 1, 2)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(net); err != nil {
		t.Fatal(err)
	}

	decoded := new(multiHeadMLP)
	if err := gob.NewDecoder(&buf).Decode(decoded); err != nil {
		t.Fatal(err)
	}

	input := []float64{-1, 3}
	want := forward(t, net, input)
	got := forward(t, decoded, input)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-10 {
			t.Errorf("expected output %v, got %v", want[i], got[i])
		}
	}
}
