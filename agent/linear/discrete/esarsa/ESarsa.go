// Package esarsa implements the Expected Sarsa algorithm with linear
// function approximation.
package esarsa

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/agent/linear/discrete/policy"
	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/matutils"
	"github.com/samuelfneumann/gorl/utils/matutils/initializers/weights"
)

// ESarsa implements the Expected Sarsa algorithm. The agent follows an
// ε-greedy behaviour policy and learns the values of a separate
// ε-greedy target policy. Action values are linear in the state
// observation vector, with one weight vector per action.
//
// The update target bootstraps off the expected action value in the
// next state under the target policy. When a transition reaches a
// terminal state, the bootstrap term is dropped. When an episode is
// instead cut off at a timeout, the bootstrap term is kept, since the
// episode could have continued past the cutoff.
type ESarsa struct {
	behaviour *policy.EGreedy

	weights      *mat.Dense
	learningRate float64
	targetE      float64

	step     ts.TimeStep
	action   int
	nextStep ts.TimeStep

	eval bool
}

// New creates a new ESarsa agent. The init argument determines how
// the weights of the agent are initialized.
func New(e env.Environment, c agent.Config, init weights.Initializer,
	seed uint64) (agent.Agent, error) {
	if !c.ValidAgent(&ESarsa{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	config, ok := c.(Config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.NewEGreedy(config.BehaviourE, seed, e)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}

	w := behaviour.Weights()[policy.WeightsKey]
	init.Initialize(w)

	return &ESarsa{
		behaviour:    behaviour,
		weights:      w,
		learningRate: config.LearningRate,
		targetE:      config.TargetE,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (e *ESarsa) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not first "+
			"timestep of episode", t.Number)
	}
	e.step = ts.TimeStep{}
	e.nextStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep of an episode
func (e *ESarsa) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: actions must be 1-dimensional, "+
			"got dimension %v", action.Len())
	}
	e.step = e.nextStep
	e.action = int(action.AtVec(0))
	e.nextStep = nextStep
	return nil
}

// Step updates the weights of the agent's policies with the most
// recently observed transition
func (e *ESarsa) Step() error {
	if e.eval || e.step.Observation == nil {
		return nil
	}

	target := e.updateTarget()

	// Current estimate of the taken action's value
	actionWeights := e.weights.RowView(e.action)
	state := e.step.Observation
	currentEstimate := mat.Dot(actionWeights, state)

	// Semi-gradient update: ∇weights = scale * state
	scale := e.learningRate * (target - currentEstimate)
	newWeights := mat.NewVecDense(actionWeights.Len(), nil)
	newWeights.AddScaledVec(actionWeights, scale, state)
	e.weights.SetRow(e.action, mat.Col(nil, 0, newWeights))

	return nil
}

// targetProbabilities returns the target policy's probability of
// taking each action given the action values in some state
func (e *ESarsa) targetProbabilities(actionValues mat.Vector) mat.Vector {
	numActions := actionValues.Len()
	prob := make([]float64, numActions)
	epsProb := e.targetE / float64(numActions)

	for i := range prob {
		prob[i] = epsProb
	}
	maxAction := matutils.MaxVec(actionValues)
	prob[maxAction] += 1.0 - e.targetE

	return mat.NewVecDense(numActions, prob)
}

// updateTarget returns the update target for the most recently
// observed transition
func (e *ESarsa) updateTarget() float64 {
	// Terminal states have no value: drop the bootstrap term. Episodes
	// cut off at a timeout keep it.
	if e.nextStep.TerminalEnd() {
		return e.nextStep.Reward
	}

	// Expected action value in the next state under the target policy
	numActions, _ := e.weights.Dims()
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(e.weights, e.nextStep.Observation)
	expectedQ := mat.Dot(e.targetProbabilities(actionValues), actionValues)

	return e.nextStep.Reward + e.nextStep.Discount*expectedQ
}

// TdError calculates the one-step TD error generated by the learner
// on a transition
func (e *ESarsa) TdError(t ts.Transition) float64 {
	numActions, _ := e.weights.Dims()
	nextActionValues := mat.NewVecDense(numActions, nil)
	nextActionValues.MulVec(e.weights, t.NextState)
	expectedQ := mat.Dot(e.targetProbabilities(nextActionValues),
		nextActionValues)

	actionWeights := e.weights.RowView(int(t.Action.AtVec(0)))
	currentEstimate := mat.Dot(actionWeights, t.State)

	return t.Reward + t.Discount*expectedQ - currentEstimate
}

// SelectAction selects an action at the argument timestep. In
// evaluation mode, the greedy action is always selected.
func (e *ESarsa) SelectAction(t ts.TimeStep) *mat.VecDense {
	return e.behaviour.SelectAction(t)
}

// Weights gets and returns the weights of the learner
func (e *ESarsa) Weights() map[string]*mat.Dense {
	return e.behaviour.Weights()
}

// Eval sets the agent into evaluation mode
func (e *ESarsa) Eval() {
	e.eval = true
	e.behaviour.Eval()
}

// Train sets the agent into training mode
func (e *ESarsa) Train() {
	e.eval = false
	e.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (e *ESarsa) IsEval() bool { return e.eval }

// EndEpisode performs cleanup at the end of an episode
func (e *ESarsa) EndEpisode() {}
