// Package wrappers provides wrappers for environments
package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/matutils"
	"github.com/samuelfneumann/gorl/utils/matutils/tilecoder"
)

// TileCoding wraps an environment and returns tile-coded
// representations of the environment's observations. Observations
// produced by the wrapped environment are binary vectors with a single
// non-zero component per tiling, plus a bias unit which is always the
// first feature in the representation.
//
// TileCoding itself implements the environment.Environment interface
// and is therefore itself an environment.
type TileCoding struct {
	environment.Environment
	coder *tilecoder.TileCoder
}

// NewTileCoding creates and returns a new TileCoding environment,
// wrapping an existing environment. The wrapped environment is reset
// when wrapped by the TileCoding environment by calling the wrapped
// environment's Reset() method.
//
// The bins parameter specifies both how many tilings to use as well
// as the number of tiles per tiling. The length of the outer-slice is
// the number of tilings. The lengths of the inner-slices are the
// number of bins per dimension for that tiling.
//
// See tilecoder.TileCoder for more details.
func NewTileCoding(env environment.Environment, bins [][]int,
	seed uint64) (*TileCoding, ts.TimeStep) {
	envSpec := env.ObservationSpec()
	minDims := envSpec.LowerBound
	maxDims := envSpec.UpperBound

	coder := tilecoder.New(minDims, maxDims, bins, seed, true)

	// Reset the tile-coded environment
	step := env.Reset()
	step.Observation = coder.Encode(step.Observation)

	return &TileCoding{env, coder}, step
}

// Reset resets the environment to some starting state
func (t *TileCoding) Reset() ts.TimeStep {
	step := t.Environment.Reset()
	step.Observation = t.coder.Encode(step.Observation)

	return step
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (t *TileCoding) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	step, last := t.Environment.Step(a)
	step.Observation = t.coder.Encode(step.Observation)

	return step, last
}

// ObservationSpec returns the observation specification of the
// environment
func (t *TileCoding) ObservationSpec() environment.Spec {
	length := t.coder.VecLength()
	shape := mat.NewVecDense(length, nil)
	lowerBound := mat.NewVecDense(length, nil)
	upperBound := matutils.VecOnes(length)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Discrete)
}

// String returns a string representation of the TileCoding environment
func (t *TileCoding) String() string {
	return fmt.Sprintf("TileCoding: %v", t.Environment)
}
