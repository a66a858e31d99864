package wrappers

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/environment/envconfig"
)

const (
	testSeed   uint64 = 14
	testCutoff uint   = 200
	testGamma         = 0.99
)

// newMountainCar returns a fresh Mountain Car environment for tile
// coding tests
func newMountainCar(t *testing.T) environment.Environment {
	conf := envconfig.NewConfig(envconfig.MountainCar, envconfig.Goal,
		testCutoff, testGamma, false)
	e, _, err := conf.Create(testSeed)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	return e
}

// countNonZero returns the number of non-zero components in v
func countNonZero(v mat.Vector) int {
	count := 0
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0.0 {
			count++
		}
	}
	return count
}

// TestTileCodingObservations checks that a tile-coded environment
// produces binary observation vectors with one non-zero component per
// tiling plus a bias unit
func TestTileCodingObservations(t *testing.T) {
	bins := [][]int{{5, 5}, {4, 4}, {3, 3}}
	expectedLength := 1 + 5*5 + 4*4 + 3*3

	tc, step := NewTileCoding(newMountainCar(t), bins, testSeed)

	if step.Observation.Len() != expectedLength {
		t.Errorf("incorrect observation length \n\twant(%v)\n\thave(%v)",
			expectedLength, step.Observation.Len())
	}
	if tc.ObservationSpec().Shape.Len() != expectedLength {
		t.Errorf("incorrect observation spec length \n\twant(%v)\n\thave(%v)",
			expectedLength, tc.ObservationSpec().Shape.Len())
	}

	// Bias unit plus one non-zero feature per tiling
	if nonZero := countNonZero(step.Observation); nonZero != len(bins)+1 {
		t.Errorf("incorrect number of non-zero features "+
			"\n\twant(%v)\n\thave(%v)", len(bins)+1, nonZero)
	}
	if step.Observation.AtVec(0) != 1.0 {
		t.Errorf("bias unit not set \n\twant(%v)\n\thave(%v)", 1.0,
			step.Observation.AtVec(0))
	}

	action := mat.NewVecDense(1, []float64{2})
	for i := 0; i < 10; i++ {
		step, _ = tc.Step(action)
		if nonZero := countNonZero(step.Observation); nonZero != len(bins)+1 {
			t.Errorf("incorrect number of non-zero features at step %d "+
				"\n\twant(%v)\n\thave(%v)", i, len(bins)+1, nonZero)
		}
	}
}

// TestIndexTileCodingMatchesDense checks that the indices produced by
// an IndexTileCoding environment address exactly the non-zero
// components of the corresponding dense tile-coded observation
func TestIndexTileCodingMatchesDense(t *testing.T) {
	bins := [][]int{{8, 8}, {8, 8}}

	dense, denseStep := NewTileCoding(newMountainCar(t), bins, testSeed)
	index, indexStep := NewIndexTileCoding(newMountainCar(t), bins, testSeed)

	if indexStep.Observation.Len() != len(bins)+1 {
		t.Errorf("incorrect number of indices \n\twant(%v)\n\thave(%v)",
			len(bins)+1, indexStep.Observation.Len())
	}

	checkIndices := func(denseObs, indexObs mat.Vector) {
		for i := 0; i < indexObs.Len(); i++ {
			idx := int(indexObs.AtVec(i))
			if denseObs.AtVec(idx) != 1.0 {
				t.Errorf("index %v does not address a non-zero feature "+
					"\n\twant(%v)\n\thave(%v)", idx, 1.0, denseObs.AtVec(idx))
			}
		}
	}
	checkIndices(denseStep.Observation, indexStep.Observation)

	action := mat.NewVecDense(1, []float64{0})
	for i := 0; i < 10; i++ {
		denseStep, _ = dense.Step(action)
		indexStep, _ = index.Step(action)
		checkIndices(denseStep.Observation, indexStep.Observation)
	}
}
