// Package qlearning implements the Q-Learning algorithm with linear
// function approximation.
//
// The Q-Learning algorithm is a special case of the Expected Sarsa
// algorithm, but with some minor performance improvements due to the
// nature of the Q-Learning target policy being known before-hand.
package qlearning

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/agent/linear/discrete/policy"
	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/matutils/initializers/weights"
)

// QLearning implements the Q-Learning algorithm. The agent follows an
// ε-greedy behaviour policy while learning the values of the greedy
// policy. Action values are linear in the state observation vector,
// with one weight vector per action.
//
// The update target bootstraps off the maximum action value in the
// next state. When a transition reaches a terminal state, the
// bootstrap term is dropped. When an episode is instead cut off at a
// timeout, the bootstrap term is kept, since the episode could have
// continued past the cutoff.
type QLearning struct {
	behaviour *policy.EGreedy

	weights      *mat.Dense
	learningRate float64

	step     ts.TimeStep
	action   int
	nextStep ts.TimeStep

	eval bool
}

// New creates a new QLearning agent. The init argument determines how
// the weights of the agent are initialized.
func New(e env.Environment, c agent.Config, init weights.Initializer,
	seed uint64) (agent.Agent, error) {
	if !c.ValidAgent(&QLearning{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	config, ok := c.(Config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.NewEGreedy(config.Epsilon, seed, e)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}

	w := behaviour.Weights()[policy.WeightsKey]
	init.Initialize(w)

	return &QLearning{
		behaviour:    behaviour,
		weights:      w,
		learningRate: config.LearningRate,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (q *QLearning) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not first "+
			"timestep of episode", t.Number)
	}
	q.step = ts.TimeStep{}
	q.nextStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep of an episode
func (q *QLearning) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: actions must be 1-dimensional, "+
			"got dimension %v", action.Len())
	}
	q.step = q.nextStep
	q.action = int(action.AtVec(0))
	q.nextStep = nextStep
	return nil
}

// Step updates the weights of the agent's policies with the most
// recently observed transition
func (q *QLearning) Step() error {
	if q.eval || q.step.Observation == nil {
		return nil
	}

	target := q.updateTarget()

	// Current estimate of the taken action's value
	actionWeights := q.weights.RowView(q.action)
	state := q.step.Observation
	currentEstimate := mat.Dot(actionWeights, state)

	// Semi-gradient update: ∇weights = scale * state
	scale := q.learningRate * (target - currentEstimate)
	newWeights := mat.NewVecDense(actionWeights.Len(), nil)
	newWeights.AddScaledVec(actionWeights, scale, state)
	q.weights.SetRow(q.action, mat.Col(nil, 0, newWeights))

	return nil
}

// updateTarget returns the update target for the most recently
// observed transition
func (q *QLearning) updateTarget() float64 {
	// Terminal states have no value: drop the bootstrap term. Episodes
	// cut off at a timeout keep it.
	if q.nextStep.TerminalEnd() {
		return q.nextStep.Reward
	}

	// Maximum action value in the next state
	numActions, _ := q.weights.Dims()
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(q.weights, q.nextStep.Observation)
	maxVal := mat.Max(actionValues)

	return q.nextStep.Reward + q.nextStep.Discount*maxVal
}

// TdError calculates the one-step TD error generated by the learner
// on a transition
func (q *QLearning) TdError(t ts.Transition) float64 {
	numActions, _ := q.weights.Dims()
	nextActionValues := mat.NewVecDense(numActions, nil)
	nextActionValues.MulVec(q.weights, t.NextState)
	maxVal := mat.Max(nextActionValues)

	actionWeights := q.weights.RowView(int(t.Action.AtVec(0)))
	currentEstimate := mat.Dot(actionWeights, t.State)

	return t.Reward + t.Discount*maxVal - currentEstimate
}

// SelectAction selects an action at the argument timestep. In
// evaluation mode, the greedy action is always selected.
func (q *QLearning) SelectAction(t ts.TimeStep) *mat.VecDense {
	return q.behaviour.SelectAction(t)
}

// Weights gets and returns the weights of the learner
func (q *QLearning) Weights() map[string]*mat.Dense {
	return q.behaviour.Weights()
}

// Eval sets the agent into evaluation mode
func (q *QLearning) Eval() {
	q.eval = true
	q.behaviour.Eval()
}

// Train sets the agent into training mode
func (q *QLearning) Train() {
	q.eval = false
	q.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (q *QLearning) IsEval() bool { return q.eval }

// EndEpisode performs cleanup at the end of an episode
func (q *QLearning) EndEpisode() {}
