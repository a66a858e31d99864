package reinforce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// REINFORCE implements the REINFORCE policy gradient algorithm with a
// learned state value baseline and generalized advantage estimation.
//
// The agent learns on fixed-size epochs of experience. Step is called
// on each timestep but only updates the agent once the current epoch
// is complete. When an epoch ends in the middle of an episode, the
// remainder of the episode is run out without recording any data,
// since an update at the epoch boundary changes the policy that the
// rest of the episode would be collected under. The next epoch then
// starts at the beginning of the following episode.
type REINFORCE struct {
	behaviour         agent.NNPolicy   // Has its own VM
	trainPolicy       agent.LogPdfOfer // Policy that is learned
	trainPolicySolver *solver.Solver
	trainPolicyVM     G.VM
	advantages        *G.Node
	logProb           *G.Node

	buffer           *epochBuffer
	epochLength      int
	currentEpochStep int
	completedEpochs  int
	eval             bool

	// finishingEpisode becomes true when the epoch ends before the
	// current episode does. The agent continues to act in the
	// environment, but no more data is stored until the episode ends.
	finishingEpisode bool

	prevStep ts.TimeStep

	// State value baseline
	vValueFn             network.NeuralNet
	vVM                  G.VM
	vTrainValueFn        network.NeuralNet
	vTrainValueFnVM      G.VM
	vTrainValueFnTargets *G.Node
	vSolver              *solver.Solver
	valueGradSteps       int
}

// New creates and returns a new REINFORCE agent.
func New(env environment.Environment, c agent.Config,
	seed uint64) (agent.Agent, error) {
	if !c.ValidAgent(&REINFORCE{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	config, ok := c.(config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	buffer := newEpochBuffer(features, actionDims, config.epochLength(),
		config.lambda(), config.gamma())

	// Prediction value function
	valueFn := config.valueFn()
	vVM := G.NewTapeMachine(valueFn.Graph())

	// Training value function and its loss
	trainValueFn := config.trainValueFn()

	trainValueFnTargets := G.NewMatrix(
		trainValueFn.Graph(),
		tensor.Float64,
		G.WithShape(trainValueFn.Prediction()[0].Shape()...),
		G.WithName("valueFnTargets"),
	)

	valueFnLoss, err := G.Sub(trainValueFn.Prediction()[0],
		trainValueFnTargets)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute value function "+
			"loss: %v", err)
	}
	valueFnLoss = G.Must(G.Square(valueFnLoss))
	valueFnLoss = G.Must(G.Mean(valueFnLoss))

	if _, err := G.Grad(valueFnLoss,
		trainValueFn.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute value function "+
			"gradient: %v", err)
	}
	trainValueFnVM := G.NewTapeMachine(trainValueFn.Graph(),
		G.BindDualValues(trainValueFn.Learnables()...))

	// Behaviour and training policies
	behaviour := config.behaviourPolicy()
	trainPolicy := config.trainPolicy()

	logProb := trainPolicy.LogPdfNode()
	advantages := G.NewVector(
		trainPolicy.Network().Graph(),
		tensor.Float64,
		G.WithName("advantages"),
		G.WithShape(config.epochLength()),
	)

	policyLoss, err := G.HadamardProd(logProb, advantages)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute policy loss: %v", err)
	}
	policyLoss = G.Must(G.Mean(policyLoss))
	policyLoss = G.Must(G.Neg(policyLoss))

	if _, err := G.Grad(policyLoss,
		trainPolicy.Network().Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute policy "+
			"gradient: %v", err)
	}
	trainPolicyVM := G.NewTapeMachine(trainPolicy.Network().Graph(),
		G.BindDualValues(trainPolicy.Network().Learnables()...))

	return &REINFORCE{
		behaviour:         behaviour,
		trainPolicy:       trainPolicy,
		trainPolicyVM:     trainPolicyVM,
		trainPolicySolver: config.policySolver(),
		advantages:        advantages,
		logProb:           logProb,

		vValueFn: valueFn,
		vVM:      vVM,

		vTrainValueFn:        trainValueFn,
		vTrainValueFnTargets: trainValueFnTargets,
		vTrainValueFnVM:      trainValueFnVM,
		vSolver:              config.vSolver(),
		valueGradSteps:       config.valueGradSteps(),

		buffer:      buffer,
		epochLength: config.epochLength(),
	}, nil
}

// SelectAction returns an action at the given timestep.
func (r *REINFORCE) SelectAction(t ts.TimeStep) *mat.VecDense {
	if t.Number != r.prevStep.Number {
		panic("selectaction: timestep is different from that previously " +
			"recorded")
	}
	return r.behaviour.SelectAction(t)
}

// EndEpisode performs cleanup at the end of an episode.
func (r *REINFORCE) EndEpisode() {
	// If the previous epoch ended before the episode did, the rest of
	// the episode was run out without storing data. A new episode is
	// starting now, so data storage can resume.
	r.finishingEpisode = false
}

// Eval sets the agent into evaluation mode
func (r *REINFORCE) Eval() {
	r.eval = true
	r.behaviour.Eval()
}

// Train sets the agent into training mode
func (r *REINFORCE) Train() {
	r.eval = false
	r.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (r *REINFORCE) IsEval() bool { return r.eval }

// ObserveFirst observes and records the first timestep in an episode
func (r *REINFORCE) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep "+
			"%v is not first timestep of episode", t.Number)
	}
	r.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep of an episode
func (r *REINFORCE) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if r.eval {
		r.prevStep = nextStep
		return nil
	}

	// Finish the current episode to end the epoch
	if r.finishingEpisode {
		r.prevStep = nextStep
		return nil
	}

	// Value of the previous step's state
	o := r.prevStep.Observation.RawVector().Data
	val, err := r.stateValue(o)
	if err != nil {
		return fmt.Errorf("observe: %v", err)
	}

	a := action.(*mat.VecDense).RawVector().Data
	if err := r.buffer.store(o, a, nextStep.Reward, val); err != nil {
		return fmt.Errorf("observe: %v", err)
	}

	r.prevStep = nextStep
	r.currentEpochStep++

	endOfPath := nextStep.Last() || r.currentEpochStep == r.epochLength
	if !endOfPath {
		return nil
	}

	if nextStep.TerminalEnd() {
		// Terminal states have value 0: no bootstrapping
		r.buffer.finishPath(0.0)
	} else {
		// The trajectory was cut off by a timeout or by the epoch
		// ending, so bootstrap off the value of the last state
		lastVal, err := r.stateValue(nextStep.Observation.RawVector().Data)
		if err != nil {
			return fmt.Errorf("observe: %v", err)
		}
		r.buffer.finishPath(lastVal)
		r.finishingEpisode = r.currentEpochStep == r.epochLength
	}
	return nil
}

// stateValue returns the value estimate of the state with observation
// vector obs.
func (r *REINFORCE) stateValue(obs []float64) (float64, error) {
	if err := r.vValueFn.SetInput(obs); err != nil {
		return 0, fmt.Errorf("could not set value function input: %v", err)
	}
	if err := r.vVM.RunAll(); err != nil {
		return 0, fmt.Errorf("could not run value function: %v", err)
	}
	val := r.vValueFn.Output()[0].Data().([]float64)
	r.vVM.Reset()
	if len(val) != 1 {
		return 0, fmt.Errorf("multiple values predicted for state value")
	}
	return val[0], nil
}

// Step updates the agent if the current epoch has been completed. If
// the agent is in evaluation mode, this function is a no-op.
func (r *REINFORCE) Step() error {
	if r.currentEpochStep < r.epochLength || r.eval {
		return nil
	}

	obs, act, adv, ret, err := r.buffer.get()
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	// Policy gradient step
	advantagesTensor := tensor.NewDense(
		tensor.Float64,
		r.advantages.Shape(),
		tensor.WithBacking(adv),
	)
	if err := G.Let(r.advantages, advantagesTensor); err != nil {
		return fmt.Errorf("step: could not set advantages: %v", err)
	}
	if _, err := r.trainPolicy.LogPdfOf(obs, act); err != nil {
		return fmt.Errorf("step: could not set log probability "+
			"inputs: %v", err)
	}
	if err := r.trainPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run policy gradient: %v", err)
	}
	if err := r.trainPolicySolver.Step(
		r.trainPolicy.Network().Model()); err != nil {
		return fmt.Errorf("step: could not step policy solver: %v", err)
	}
	r.trainPolicyVM.Reset()

	// Value function regression towards the rewards-to-go
	targetsTensor := tensor.NewDense(
		tensor.Float64,
		r.vTrainValueFnTargets.Shape(),
		tensor.WithBacking(ret),
	)
	for i := 0; i < r.valueGradSteps; i++ {
		if err := G.Let(r.vTrainValueFnTargets, targetsTensor); err != nil {
			return fmt.Errorf("step: could not set value targets: %v", err)
		}
		if err := r.vTrainValueFnVM.RunAll(); err != nil {
			return fmt.Errorf("step: could not run value function "+
				"update: %v", err)
		}
		if err := r.vSolver.Step(r.vTrainValueFn.Model()); err != nil {
			return fmt.Errorf("step: could not step value function "+
				"solver: %v", err)
		}
		r.vTrainValueFnVM.Reset()
	}

	// Update the behaviour policy and prediction value function
	if err := network.Set(r.behaviour.Network(),
		r.trainPolicy.Network()); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v", err)
	}
	if err := network.Set(r.vValueFn, r.vTrainValueFn); err != nil {
		return fmt.Errorf("step: could not update value function: %v", err)
	}
	r.completedEpochs++
	r.currentEpochStep = 0

	return nil
}

// Close cleans up any used resources
func (r *REINFORCE) Close() error {
	r.vVM.Close()
	r.vTrainValueFnVM.Close()
	r.trainPolicyVM.Close()
	return r.behaviour.Close()
}
