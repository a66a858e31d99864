// Package returns computes return estimates over transitions stored
// in a replay buffer.
//
// Functions in this package distinguish episodes which ended by
// reaching a terminal state from episodes which were cut off at a
// timeout. Value estimates are bootstrapped through timeouts, since
// the episode could have continued, but never through terminal
// states, where the value of the successor state is zero by
// definition.
package returns

import "fmt"

// Chain is the view of a replay buffer needed to compute returns.
// Both replay.Buffer and replay.VectorBuffer satisfy this interface.
type Chain interface {
	// Reward returns the reward of transition i
	Reward(i int) float64

	// Terminated returns whether transition i ended its episode by
	// reaching a terminal state
	Terminated(i int) bool

	// Truncated returns whether transition i ended its episode by
	// being cut off at a timeout
	Truncated(i int) bool

	// Next returns the index of the transition following i in the
	// same episode, or i if no such transition is stored
	Next(i int) int

	// Prev returns the index of the transition preceding i in the
	// same episode, or i if no such transition is stored
	Prev(i int) int
}

// ValueMask returns the bootstrap mask of the argument transitions:
// 0 for transitions which reached a terminal state and 1 otherwise.
// Multiplying a successor state's value estimate by this mask zeroes
// the bootstrap exactly where the episode truly ended, while
// truncated transitions keep their bootstrap.
func ValueMask(c Chain, indices []int) []float64 {
	mask := make([]float64, len(indices))
	for k, i := range indices {
		if !c.Terminated(i) {
			mask[k] = 1.0
		}
	}
	return mask
}

// DiscountCumSum returns the discounted cumulative sum of values:
//
//	out[i] = values[i] + discount*values[i+1] + discount^2*values[i+2] + ...
func DiscountCumSum(discount float64, values []float64) []float64 {
	out := make([]float64, len(values))

	if len(values) == 0 {
		return out
	}

	out[len(values)-1] = values[len(values)-1]
	for i := len(values) - 2; i >= 0; i-- {
		out[i] = values[i] + discount*out[i+1]
	}
	return out
}

// Episodic computes GAE(λ) advantage estimates and λ-returns for the
// transitions at the argument indices, which must be stored
// consecutive transitions in chronological order.
//
// The arguments vals and nextVals hold value estimates of each
// transition's state and next state, aligned with indices. For each
// transition, the temporal difference error is
//
//	δ = r + γ·v(s′)·mask − v(s)
//
// where mask zeroes the bootstrap on terminal transitions. Advantages
// are the discounted cumulative sums of δ with discount γλ,
// accumulated separately within each episode. The returned λ-returns
// are advantages + vals and can serve as value function targets.
func Episodic(c Chain, indices []int, vals, nextVals []float64,
	gamma, lambda float64) (advantages, lambdaReturns []float64, err error) {
	if len(vals) != len(indices) || len(nextVals) != len(indices) {
		return nil, nil, fmt.Errorf("episodic: value estimates must align "+
			"with indices \n\twant(%v) \n\thave(%v, %v)", len(indices),
			len(vals), len(nextVals))
	}

	advantages = make([]float64, len(indices))
	lambdaReturns = make([]float64, len(indices))

	nextAdvantage := 0.0
	for k := len(indices) - 1; k >= 0; k-- {
		i := indices[k]

		mask := 1.0
		if c.Terminated(i) {
			mask = 0.0
		}

		// The advantage accumulation restarts at every episode end,
		// whether terminal, truncated, or simply the end of the
		// stored chain
		if c.Terminated(i) || c.Truncated(i) || c.Next(i) == i {
			nextAdvantage = 0.0
		}

		delta := c.Reward(i) + gamma*nextVals[k]*mask - vals[k]
		advantages[k] = delta + gamma*lambda*nextAdvantage
		lambdaReturns[k] = advantages[k] + vals[k]

		nextAdvantage = advantages[k]
	}
	return advantages, lambdaReturns, nil
}

// NStepIndices returns, for each argument transition, the index of
// the final transition of its n-step chain. The chain follows Next
// for up to n-1 steps and stops early at episode ends. The caller
// evaluates its bootstrap value function on the next state of each
// returned transition before calling NStep.
func NStepIndices(c Chain, indices []int, n int) []int {
	last := make([]int, len(indices))
	for k, i := range indices {
		j := i
		for step := 1; step < n; step++ {
			next := c.Next(j)
			if next == j {
				break
			}
			j = next
		}
		last[k] = j
	}
	return last
}

// NStep computes n-step return estimates for the transitions at the
// argument indices:
//
//	G = r_t + γ·r_{t+1} + ... + γ^{n-1}·r_{t+n-1} + γ^n·v(s_{t+n})·mask
//
// The argument targetVals holds bootstrap value estimates of the
// state reached at the end of each transition's n-step chain, aligned
// with indices; the chains are the ones reported by NStepIndices.
// Chains stopping at a terminal state drop their bootstrap term,
// while chains stopping at a timeout keep it.
func NStep(c Chain, indices []int, n int, targetVals []float64,
	gamma float64) ([]float64, error) {
	if len(targetVals) != len(indices) {
		return nil, fmt.Errorf("nStep: bootstrap values must align with "+
			"indices \n\twant(%v) \n\thave(%v)", len(indices),
			len(targetVals))
	}
	if n < 1 {
		return nil, fmt.Errorf("nStep: n must be positive, got %v", n)
	}

	out := make([]float64, len(indices))
	for k, i := range indices {
		g := 0.0
		discount := 1.0

		j := i
		for step := 0; ; step++ {
			g += discount * c.Reward(j)
			discount *= gamma

			next := c.Next(j)
			if step == n-1 || next == j {
				break
			}
			j = next
		}

		if !c.Terminated(j) {
			g += discount * targetVals[k]
		}
		out[k] = g
	}
	return out, nil
}
