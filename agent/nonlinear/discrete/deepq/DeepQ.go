// Package deepq implements the deep Q-learning algorithm. This
// algorithm is conceptually similar to DQN, but uses the MSE loss.
package deepq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/replay"
	"github.com/samuelfneumann/gorl/returns"
	"github.com/samuelfneumann/gorl/solver"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// DeepQ implements deep Q-learning with experience replay, a target
// network, and n-step update targets.
//
// On each update, a batch of transitions is sampled from the replay
// buffer. For each sampled transition, the buffer's episode chains
// are followed for up to n steps and the target network evaluates the
// state at the end of each chain, giving the update target:
//
//	G = r_t + γ·r_{t+1} + ... + γ^{n-1}·r_{t+n-1} + γ^n·max[Q'(s_{t+n}, a)]
//
// Chains ending in a terminal state drop the bootstrap term, while
// chains cut off at a timeout keep it.
type DeepQ struct {
	// Behaviour egreedy policy for selecting actions. Has its own VM.
	behaviour agent.EGreedyNNPolicy

	// Network for learning weights. Takes batches of inputs.
	trainNet   agent.EGreedyNNPolicy
	trainNetVM G.VM
	sol        *solver.Solver

	// Network that provides the bootstrap values for update targets
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// Target network update schedule
	tau                  float64 // Polyak averaging constant
	targetUpdateInterval int     // Gradient steps between target updates
	gradientSteps        int

	// Input nodes of the trainNet graph
	selectedActions *G.Node // One-hot actions taken at the batch states
	updateTargets   *G.Node

	numActions int
	batchSize  int
	nStep      int
	gamma      float64

	buffer  *replay.Buffer
	sampler replay.Sampler

	prevStep ts.TimeStep
	eval     bool
}

// New creates and returns a new DeepQ agent
func New(e environment.Environment, c agent.Config,
	seed uint64) (agent.Agent, error) {
	if !c.ValidAgent(&DeepQ{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	config, ok := c.(Config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	if e.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("new: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("new: actions must be enumerated " +
			"starting from 0")
	}

	batchSize := config.BatchSize
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	// Behaviour network for selecting actions
	behaviour, err := policy.NewMultiHeadEGreedyMLP(
		config.Epsilon,
		e,
		1,
		G.NewGraph(),
		config.PolicyLayers,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
		int64(seed),
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}

	// Training network which learns the weights
	trainNetClone, err := behaviour.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning "+
			"network: %v", err)
	}
	trainNet := trainNetClone.(agent.EGreedyNNPolicy)
	gTrain := trainNet.Network().Graph()

	// Target network which provides the bootstrap values
	targetNet, err := behaviour.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target "+
			"network: %v", err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// The network outputs N action values, one for each environmental
	// action. The one-hot selectedActions picks out the value of the
	// action that was actually taken at each batch state.
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("selectedActions"),
		G.WithShape(batchSize, numActions),
	)
	updateTargets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithName("updateTargets"),
		G.WithShape(batchSize),
	)

	prediction := trainNet.Network().Prediction()[0]
	selectedActionValues, err := G.HadamardProd(prediction, selectedActions)
	if err != nil {
		return nil, fmt.Errorf("new: could not select action values: %v",
			err)
	}
	selectedActionValues = G.Must(G.Sum(selectedActionValues, 1))

	// Mean squared TD error
	losses := G.Must(G.Sub(updateTargets, selectedActionValues))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost,
		trainNet.Network().Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Network().Learnables()...),
	)

	// The replay buffer stores selected actions as one-hot vectors
	buffer, err := replay.NewBuffer(features, numActions,
		config.MaxReplayCapacity)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}
	sampler := replay.NewUniformSampler(batchSize,
		config.MinReplayCapacity, seed)

	return &DeepQ{
		behaviour: behaviour,

		trainNet:   trainNet,
		trainNetVM: trainNetVM,
		sol:        config.Solver,

		targetNet:   targetNet,
		targetNetVM: targetNetVM,

		tau:                  config.Tau,
		targetUpdateInterval: config.TargetUpdateInterval,

		selectedActions: selectedActions,
		updateTargets:   updateTargets,

		numActions: numActions,
		batchSize:  batchSize,
		nStep:      config.NStep,
		gamma:      config.Gamma,

		buffer:  buffer,
		sampler: sampler,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not first "+
			"timestep of episode", t.Number)
	}
	d.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep of an episode
func (d *DeepQ) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if d.eval {
		d.prevStep = nextStep
		return nil
	}
	if action.Len() != 1 {
		return fmt.Errorf("observe: actions must be 1-dimensional, "+
			"got dimension %v", action.Len())
	}

	oneHot := mat.NewVecDense(d.numActions, nil)
	oneHot.SetVec(int(action.AtVec(0)), 1.0)

	if err := d.buffer.Add(d.prevStep, oneHot, nextStep); err != nil {
		return fmt.Errorf("observe: %v", err)
	}

	d.prevStep = nextStep
	return nil
}

// Step updates the weights of the agent's policies. If the replay
// buffer does not yet hold enough transitions to sample, no update is
// performed.
func (d *DeepQ) Step() error {
	if d.eval {
		return nil
	}

	indices, err := d.sampler.Sample(d.buffer)
	if replay.IsEmptyBuffer(err) || replay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	states, actions, _, _, _ := d.buffer.BatchFrom(indices)

	// Bootstrap values come from evaluating the target network on the
	// states at the end of each transition's n-step chain
	lastIndices := returns.NStepIndices(d.buffer, indices, d.nStep)
	_, _, chainEndStates, _, _ := d.buffer.BatchFrom(lastIndices)

	if err := d.targetNet.SetInput(
		chainEndStates.RawMatrix().Data); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target net: %v", err)
	}
	nextActionValues := d.targetNet.Output()[0].Data().([]float64)
	d.targetNetVM.Reset()

	targetVals := make([]float64, len(indices))
	for row := range indices {
		rowVals := nextActionValues[row*d.numActions : (row+1)*d.numActions]
		targetVals[row], _ = floatutils.MaxSlice(rowVals)
	}

	updateTargets, err := returns.NStep(d.buffer, indices, d.nStep,
		targetVals, d.gamma)
	if err != nil {
		return fmt.Errorf("step: could not compute update targets: %v", err)
	}

	// Run the learning step
	targetsTensor := tensor.New(
		tensor.WithBacking(updateTargets),
		tensor.WithShape(d.batchSize),
	)
	if err := G.Let(d.updateTargets, targetsTensor); err != nil {
		return fmt.Errorf("step: could not set update targets: %v", err)
	}

	actionsTensor := tensor.New(
		tensor.WithBacking(actions.RawMatrix().Data),
		tensor.WithShape(d.batchSize, d.numActions),
	)
	if err := G.Let(d.selectedActions, actionsTensor); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	if err := d.trainNet.Network().SetInput(
		states.RawMatrix().Data); err != nil {
		return fmt.Errorf("step: could not set trainNet input: %v", err)
	}
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run trainNet: %v", err)
	}
	if err := d.sol.Step(d.trainNet.Network().Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Update the target network with the newly learned weights
	if d.gradientSteps%d.targetUpdateInterval == 0 {
		if d.tau == 1.0 {
			err = d.targetNet.Set(d.trainNet.Network())
		} else {
			err = d.targetNet.Polyak(d.trainNet.Network(), d.tau)
		}
		if err != nil {
			return fmt.Errorf("step: could not update target "+
				"network: %v", err)
		}
	}

	if err := network.Set(d.behaviour.Network(),
		d.trainNet.Network()); err != nil {
		return fmt.Errorf("step: could not update behaviour "+
			"policy: %v", err)
	}
	return nil
}

// SelectAction returns an action selected by the behaviour policy at
// the argument timestep. In evaluation mode, action selection is
// greedy.
func (d *DeepQ) SelectAction(t ts.TimeStep) *mat.VecDense {
	return d.behaviour.SelectAction(t)
}

// TdError calculates the one-step TD error generated by the learner
// on a transition
func (d *DeepQ) TdError(t ts.Transition) float64 {
	actionValue := d.maxActionValue(t.State.RawVector().Data,
		int(t.Action.AtVec(0)))
	_, nextActionValue := d.greedyActionValue(t.NextState.RawVector().Data)

	return t.Reward + t.Discount*nextActionValue - actionValue
}

// maxActionValue returns the behaviour network's value estimate of
// taking the argument action at the argument state observation
func (d *DeepQ) maxActionValue(obs []float64, action int) float64 {
	actionValues := d.actionValues(obs)
	return actionValues[action]
}

// greedyActionValue returns the greedy action at the argument state
// observation and its value estimate
func (d *DeepQ) greedyActionValue(obs []float64) (int, float64) {
	actionValues := d.actionValues(obs)
	max, indices := floatutils.MaxSlice(actionValues)
	return indices[0], max
}

// actionValues runs the behaviour network on a single state
// observation and returns the predicted action values
func (d *DeepQ) actionValues(obs []float64) []float64 {
	net := d.behaviour.Network()
	if err := net.SetInput(obs); err != nil {
		panic(fmt.Sprintf("actionvalues: could not set input: %v", err))
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		panic(fmt.Sprintf("actionvalues: could not run network: %v", err))
	}
	out := d.behaviour.Network().Output()[0].Data().([]float64)
	vm.Reset()

	values := make([]float64, len(out))
	copy(values, out)
	return values
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
	d.behaviour.Eval()
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
	d.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool { return d.eval }

// EndEpisode performs cleanup at the end of an episode
func (d *DeepQ) EndEpisode() {}

// Close cleans up any used resources
func (d *DeepQ) Close() error {
	d.targetNetVM.Close()
	d.trainNetVM.Close()
	return d.behaviour.Close()
}
