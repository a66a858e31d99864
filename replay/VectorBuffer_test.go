package replay

import (
	"bytes"
	"encoding/gob"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

func addVectorTransition(t *testing.T, v *VectorBuffer, envID int,
	reward float64, end ts.EndType) {
	t.Helper()

	state := mat.NewVecDense(2, []float64{reward, reward + 1})
	nextState := mat.NewVecDense(2, []float64{reward + 2, reward + 3})
	action := mat.NewVecDense(1, []float64{0})

	step := ts.New(ts.Mid, 0, 1.0, state, 0)
	nextStep := ts.New(ts.Mid, reward, 0.99, nextState, 1)
	if end != ts.Nil {
		nextStep.SetEnd(end)
	}

	if err := v.Add(envID, step, action, nextStep); err != nil {
		t.Fatal(err)
	}
}

func TestVectorBufferSeparatesEnvironments(t *testing.T) {
	v, err := NewVectorBuffer(2, 2, 1, 10, 3)
	if err != nil {
		t.Fatal(err)
	}

	// Interleave additions from two environments
	addVectorTransition(t, v, 0, 0, ts.Nil)
	addVectorTransition(t, v, 1, 100, ts.Nil)
	addVectorTransition(t, v, 0, 1, ts.Nil)
	addVectorTransition(t, v, 1, 101, ts.TerminalStateReached)

	if v.Len() != 4 {
		t.Fatalf("expected 4 transitions, got %v", v.Len())
	}

	// Environment 0 occupies global indices [0, 10)
	if got := v.Next(0); got != 1 {
		t.Errorf("Next(0) = %v, want 1", got)
	}
	if got := v.Prev(1); got != 0 {
		t.Errorf("Prev(1) = %v, want 0", got)
	}

	// Environment 1 occupies global indices [10, 20)
	if got := v.Next(10); got != 11 {
		t.Errorf("Next(10) = %v, want 11", got)
	}
	if got := v.Next(11); got != 11 {
		t.Errorf("Next should stop at episode ends, Next(11) = %v", got)
	}

	if v.Reward(10) != 100 {
		t.Errorf("expected reward 100 at global index 10, got %v",
			v.Reward(10))
	}
}

func TestVectorBufferUnfinishedIndices(t *testing.T) {
	v, err := NewVectorBuffer(3, 2, 1, 10, 3)
	if err != nil {
		t.Fatal(err)
	}

	addVectorTransition(t, v, 0, 0, ts.Nil)
	addVectorTransition(t, v, 1, 1, ts.TerminalStateReached)
	addVectorTransition(t, v, 2, 2, ts.Nil)

	unfinished := v.UnfinishedIndices()
	if len(unfinished) != 2 {
		t.Fatalf("expected 2 unfinished episodes, got %v", len(unfinished))
	}
	if unfinished[0] != 0 || unfinished[1] != 20 {
		t.Errorf("expected unfinished indices [0 20], got %v", unfinished)
	}
}

func TestVectorBufferSample(t *testing.T) {
	v, err := NewVectorBuffer(2, 2, 1, 10, 7)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := v.Sample(2); !IsEmptyBuffer(err) {
		t.Error("expected empty buffer error")
	}

	addVectorTransition(t, v, 0, 0, ts.Nil)
	addVectorTransition(t, v, 0, 1, ts.Nil)
	addVectorTransition(t, v, 1, 2, ts.Nil)

	indices, err := v.Sample(10)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range indices {
		valid := i == 0 || i == 1 || i == 10
		if !valid {
			t.Errorf("sampled index %v does not refer to a stored "+
				"transition", i)
		}
	}
}

func TestVectorBufferGobRoundTrip(t *testing.T) {
	v, err := NewVectorBuffer(2, 2, 1, 5, 7)
	if err != nil {
		t.Fatal(err)
	}
	addVectorTransition(t, v, 0, 1, ts.Nil)
	addVectorTransition(t, v, 1, 2, ts.TerminalStateReached)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatal(err)
	}

	decoded := &VectorBuffer{}
	if err := gob.NewDecoder(&buf).Decode(decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.NumEnvs() != 2 || decoded.Len() != 2 {
		t.Fatalf("decoded buffer holds %v transitions over %v "+
			"environments", decoded.Len(), decoded.NumEnvs())
	}
	if decoded.Reward(0) != 1.0 {
		t.Error("decoded buffer does not match original")
	}
	if !decoded.Terminated(5) {
		t.Error("termination flag lost in round trip")
	}
	if _, err := decoded.Sample(1); err != nil {
		t.Errorf("could not sample from decoded buffer: %v", err)
	}
}
