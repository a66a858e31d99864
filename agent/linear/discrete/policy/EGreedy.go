// Package policy implements policies using linear function
// approximation
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/matutils"
)

const (
	// Keys for weights map: map[string]*mat.Dense
	WeightsKey string = "weights"
)

// EGreedy implements an ε-greedy policy using linear function
// approximation. The policy stores one weight vector per action, and
// action values are the product of the weight matrix with the state
// observation vector. In evaluation mode action selection is always
// greedy.
type EGreedy struct {
	weights *mat.Dense
	epsilon float64
	eval    bool
	source  rand.Source
}

// NewEGreedy constructs a new EGreedy policy, where ε is the
// probability with which a random action is selected
func NewEGreedy(ε float64, seed uint64, e env.Environment) (*EGreedy,
	error) {
	if e.ActionSpec().Shape.Len() != 1 {
		return nil, fmt.Errorf("newegreedy: egreedy policy can only be " +
			"used with 1-dimensional actions")
	}
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("newegreedy: egreedy policy can only be " +
			"used with discrete actions")
	}

	actions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	// Weight matrix: rows = actions, cols = features
	weights := mat.NewDense(actions, features, nil)

	return &EGreedy{
		weights: weights,
		epsilon: ε,
		source:  rand.NewSource(seed),
	}, nil
}

// Weights gets and returns the weights of the EGreedy policy as a
// string description -> weights
func (p *EGreedy) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense)
	weights[WeightsKey] = p.weights

	return weights
}

// SetWeights sets the weight pointers to point to a new set of weights.
// The SetWeights function can take the output of a call to Weights()
// on another policy directly
func (p *EGreedy) SetWeights(weights map[string]*mat.Dense) error {
	newWeights, ok := weights[WeightsKey]
	if !ok {
		return fmt.Errorf("setweights: no weights named %q", WeightsKey)
	}

	p.weights = newWeights
	return nil
}

// SetEpsilon sets the value of epsilon for the policy
func (p *EGreedy) SetEpsilon(ε float64) { p.epsilon = ε }

// Epsilon gets the value of epsilon for the policy
func (p *EGreedy) Epsilon() float64 { return p.epsilon }

// Eval sets the policy to evaluation mode
func (p *EGreedy) Eval() { p.eval = true }

// Train sets the policy to training mode
func (p *EGreedy) Train() { p.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (p *EGreedy) IsEval() bool { return p.eval }

// SelectAction selects an action from the ε-greedy policy at the
// argument timestep
func (p *EGreedy) SelectAction(t timestep.TimeStep) *mat.VecDense {
	numActions, _ := p.weights.Dims()

	// Calculate all action values
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(p.weights, t.Observation)

	greedyAction := matutils.MaxVec(actionValues)
	if p.eval {
		return mat.NewVecDense(1, []float64{float64(greedyAction)})
	}

	// Each action has probability ε/|A| of being selected, with the
	// greedy action having an additional 1-ε probability
	prob := p.epsilon / float64(numActions)
	actionProbabilities := make([]float64, numActions)
	for i := range actionProbabilities {
		actionProbabilities[i] = prob
	}
	actionProbabilities[greedyAction] += 1.0 - p.epsilon

	dist := distuv.NewCategorical(actionProbabilities, p.source)
	return mat.NewVecDense(1, []float64{dist.Rand()})
}
