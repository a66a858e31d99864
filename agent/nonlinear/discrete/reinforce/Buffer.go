// Package reinforce implements the REINFORCE policy gradient algorithm
// with a state value baseline and generalized advantage estimation.
//
// Adapted from https://github.com/openai/spinningup/blob/master/spinup/algos/tf1/vpg/vpg.py
package reinforce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/gorl/returns"
	"github.com/samuelfneumann/gorl/utils/matutils"
)

// epochBuffer stores the trajectories of a single epoch of training.
// Once a trajectory within the epoch ends, finishPath computes the
// GAE advantages and discounted rewards-to-go of the trajectory.
// When the buffer is full, get returns the epoch's data for learning
// and resets the buffer.
type epochBuffer struct {
	obsSize      int
	actionSize   int
	maxSize      int
	currentPos   int
	pathStartIdx int
	lambda       float64
	gamma        float64

	obsBuffer []float64
	actBuffer []float64
	advBuffer []float64
	rewBuffer []float64
	retBuffer []float64
	valBuffer []float64
}

func newEpochBuffer(obsDim, actDim, size int, lambda,
	gamma float64) *epochBuffer {
	return &epochBuffer{
		obsSize:      obsDim,
		actionSize:   actDim,
		maxSize:      size,
		currentPos:   0,
		pathStartIdx: 0,
		lambda:       lambda,
		gamma:        gamma,
		obsBuffer:    make([]float64, size*obsDim),
		actBuffer:    make([]float64, size*actDim),
		advBuffer:    make([]float64, size),
		rewBuffer:    make([]float64, size),
		retBuffer:    make([]float64, size),
		valBuffer:    make([]float64, size),
	}
}

// store adds a single timestep's state, action, reward, and state
// value estimate to the buffer.
func (e *epochBuffer) store(obs, act []float64, rew, val float64) error {
	if e.currentPos >= e.maxSize {
		return fmt.Errorf("store: cannot add new transition, buffer at " +
			"maximum capacity")
	}
	if len(obs) != e.obsSize {
		return fmt.Errorf("store: illegal obs length \n\twant(%v)\n\thave(%v)",
			e.obsSize, len(obs))
	}
	if len(act) != e.actionSize {
		return fmt.Errorf("store: illegal act length \n\twant(%v)\n\thave(%v)",
			e.actionSize, len(act))
	}

	start := e.currentPos * e.obsSize
	copy(e.obsBuffer[start:start+e.obsSize], obs)

	start = e.currentPos * e.actionSize
	copy(e.actBuffer[start:start+e.actionSize], act)

	e.rewBuffer[e.currentPos] = rew
	e.valBuffer[e.currentPos] = val
	e.currentPos++
	return nil
}

// finishPath finishes the current trajectory, computing its GAE
// advantages and discounted rewards-to-go. The lastVal argument is the
// value estimate of the state the trajectory ended in. It should be 0
// if the trajectory ended in a terminal state and v(s') if the
// trajectory was cut off at state s', either by a timeout or by the
// epoch ending.
func (e *epochBuffer) finishPath(lastVal float64) {
	start := e.pathStartIdx
	stop := e.currentPos
	rews := append(e.rewBuffer[start:stop:stop], lastVal)
	vals := append(e.valBuffer[start:stop:stop], lastVal)

	// GAE-lambda advantage calculation
	stateVals := mat.NewVecDense(len(vals)-1, vals[:len(vals)-1])
	nextStateVals := mat.NewVecDense(len(vals)-1, vals[1:])
	rewards := mat.NewVecDense(len(rews)-1, rews[:len(rews)-1])

	deltas := mat.NewVecDense(stateVals.Len(), nil)
	deltas.AddScaledVec(rewards, e.gamma, nextStateVals)
	deltas.SubVec(deltas, stateVals)

	copy(e.advBuffer[start:stop],
		returns.DiscountCumSum(e.gamma*e.lambda, deltas.RawVector().Data))

	// Rewards-to-go
	rewsToGo := returns.DiscountCumSum(e.gamma, rews)
	copy(e.retBuffer[start:stop], rewsToGo[:len(rewsToGo)-1])

	e.pathStartIdx = e.currentPos
}

// get returns the states, actions, advantages, and rewards-to-go of
// the epoch and resets the buffer. Advantages are standardized to
// have mean 0 and standard deviation 1. The buffer must be full.
func (e *epochBuffer) get() ([]float64, []float64, []float64, []float64,
	error) {
	if e.currentPos != e.maxSize {
		return nil, nil, nil, nil, fmt.Errorf("get: buffer must be full " +
			"before sampling")
	}

	e.currentPos = 0
	e.pathStartIdx = 0

	// Advantage standardization
	adv := mat.NewVecDense(len(e.advBuffer), e.advBuffer)
	ones := matutils.VecOnes(adv.Len())
	mean := stat.Mean(e.advBuffer, nil)
	std := stat.StdDev(e.advBuffer, nil) + 1e-8
	stdVec := mat.NewVecDense(adv.Len(), nil)
	stdVec.AddScaledVec(stdVec, std, ones)

	adv.AddScaledVec(adv, -mean, ones)
	adv.DivElemVec(adv, stdVec)

	return e.obsBuffer, e.actBuffer, adv.RawVector().Data, e.retBuffer, nil
}
