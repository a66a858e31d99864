package reinforce

import (
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/agent/nonlinear/discrete/policy"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.CategoricalReinforceMLP, CategoricalMLPConfigList{})
}

// CategoricalMLPConfigList implements functionality for storing a list
// of CategoricalMLPConfig's in a simple way. Instead of storing a
// slice of Configs, the ConfigList stores each field's values and
// constructs the list by every combination of field values.
type CategoricalMLPConfigList struct {
	PolicyLayers      [][]int
	PolicyBiases      [][]bool
	PolicyActivations [][]*network.Activation

	// State value function neural net
	ValueFnLayers      [][]int
	ValueFnBiases      [][]bool
	ValueFnActivations [][]*network.Activation

	// Weight init function for all neural nets
	InitWFn []*initwfn.InitWFn

	PolicySolver []*solver.Solver
	VSolver      []*solver.Solver

	// Number of gradient steps to take for the value function per
	// epoch
	ValueGradSteps []int
	EpochLength    []int

	// Generalized Advantage Estimation
	Lambda []float64
	Gamma  []float64
}

// NewCategoricalMLPConfigList returns a new CategoricalMLPConfigList
// as an agent.TypedConfigList. Because the returned value is a typed
// list, it can safely be JSON serialized and deserialized without
// specifying what the type of the ConfigList is.
func NewCategoricalMLPConfigList(
	PolicyLayers [][]int,
	PolicyBiases [][]bool,
	PolicyActivations [][]*network.Activation,
	ValueFnLayers [][]int,
	ValueFnBiases [][]bool,
	ValueFnActivations [][]*network.Activation,
	InitWFn []*initwfn.InitWFn,
	PolicySolver []*solver.Solver,
	VSolver []*solver.Solver,
	ValueGradSteps []int,
	EpochLength []int,
	Lambda []float64,
	Gamma []float64,
) agent.TypedConfigList {
	config := CategoricalMLPConfigList{
		PolicyLayers:      PolicyLayers,
		PolicyBiases:      PolicyBiases,
		PolicyActivations: PolicyActivations,

		ValueFnLayers:      ValueFnLayers,
		ValueFnBiases:      ValueFnBiases,
		ValueFnActivations: ValueFnActivations,

		InitWFn: InitWFn,

		PolicySolver: PolicySolver,
		VSolver:      VSolver,

		ValueGradSteps: ValueGradSteps,
		EpochLength:    EpochLength,

		Lambda: Lambda,
		Gamma:  Gamma,
	}

	return agent.NewTypedConfigList(config)
}

// Type returns the type of Config stored in the list
func (c CategoricalMLPConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields gets the total number of settable fields/hyperparameters
// for the agent configuration
func (c CategoricalMLPConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config that is of the type stored by
// CategoricalMLPConfigList
func (c CategoricalMLPConfigList) Config() agent.Config {
	return CategoricalMLPConfig{}
}

// Len returns the number of configurations stored in the list
func (c CategoricalMLPConfigList) Len() int {
	return len(c.Lambda) * len(c.Gamma) * len(c.ValueGradSteps) *
		len(c.EpochLength) * len(c.InitWFn) * len(c.ValueFnActivations) *
		len(c.ValueFnBiases) * len(c.ValueFnLayers) * len(c.PolicySolver) *
		len(c.VSolver) * len(c.PolicyActivations) * len(c.PolicyBiases) *
		len(c.PolicyLayers)
}

// CategoricalMLPConfig implements a configuration for a REINFORCE
// agent with a categorical policy. The categorical distribution is
// parameterized by a neural network with N outputs, one for each
// action in the environment. The network outputs the logit of each
// action, and action probabilities are computed through the softmax
// function.
type CategoricalMLPConfig struct {
	// Policy neural net
	policy            agent.LogPdfOfer // REINFORCE.trainPolicy
	behaviour         agent.NNPolicy   // REINFORCE.behaviour
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	// State value function neural net
	vValueFn           network.NeuralNet
	vTrainValueFn      network.NeuralNet
	ValueFnLayers      []int
	ValueFnBiases      []bool
	ValueFnActivations []*network.Activation

	// Weight init function for all neural nets
	InitWFn *initwfn.InitWFn

	PolicySolver *solver.Solver
	VSolver      *solver.Solver

	// Number of gradient steps to take for the value function per
	// epoch
	ValueGradSteps int
	EpochLength    int

	// Generalized Advantage Estimation
	Lambda float64
	Gamma  float64
}

// BatchSize gets the batch size for the policy generated by this
// config
func (c CategoricalMLPConfig) BatchSize() int {
	return c.EpochLength
}

// Validate checks a Config to ensure it is a valid configuration
func (c CategoricalMLPConfig) Validate() error {
	if c.EpochLength <= 0 {
		return fmt.Errorf("cannot have epoch length < 1")
	}
	if c.ValueGradSteps <= 0 {
		return fmt.Errorf("cannot have value gradient steps < 1")
	}

	return nil
}

// Type returns the type of the configuration
func (c CategoricalMLPConfig) Type() agent.Type {
	return agent.CategoricalReinforceMLP
}

// ValidAgent returns whether the input agent is valid for this config
func (c CategoricalMLPConfig) ValidAgent(a agent.Agent) bool {
	switch a.(type) {
	case *REINFORCE:
		return true
	}
	return false
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c CategoricalMLPConfig) CreateAgent(e env.Environment,
	seed uint64) (agent.Agent, error) {
	behaviour, err := policy.NewCategoricalMLP(
		e,
		1,
		G.NewGraph(),
		c.PolicyLayers,
		c.PolicyBiases,
		c.PolicyActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create "+
			"behaviour policy: %v", err)
	}

	p, err := policy.NewCategoricalMLP(
		e,
		c.EpochLength,
		G.NewGraph(),
		c.PolicyLayers,
		c.PolicyBiases,
		c.PolicyActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create policy: %v",
			err)
	}

	features := e.ObservationSpec().Shape.Len()

	valueFn, err := network.NewSingleHeadMLP(
		features,
		1,
		G.NewGraph(),
		c.ValueFnLayers,
		c.ValueFnBiases,
		c.InitWFn.InitWFn(),
		c.ValueFnActivations,
	)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create value "+
			"function: %v", err)
	}

	trainValueFn, err := network.NewSingleHeadMLP(
		features,
		c.EpochLength,
		G.NewGraph(),
		c.ValueFnLayers,
		c.ValueFnBiases,
		c.InitWFn.InitWFn(),
		c.ValueFnActivations,
	)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create "+
			"train value function: %v", err)
	}

	if err := network.Set(behaviour.Network(), p.Network()); err != nil {
		return nil, fmt.Errorf("createagent: could not synchronize "+
			"policies: %v", err)
	}
	if err := network.Set(valueFn, trainValueFn); err != nil {
		return nil, fmt.Errorf("createagent: could not synchronize value "+
			"functions: %v", err)
	}
	c.policy = p
	c.behaviour = behaviour
	c.vValueFn = valueFn
	c.vTrainValueFn = trainValueFn

	return New(e, c, seed)
}

// Below implemented to satisfy the reinforce.config interface

// trainPolicy returns the constructed policy to train
func (c CategoricalMLPConfig) trainPolicy() agent.LogPdfOfer {
	return c.policy
}

// behaviourPolicy returns the constructed behaviour policy
func (c CategoricalMLPConfig) behaviourPolicy() agent.NNPolicy {
	return c.behaviour
}

// valueFn returns the constructed value function
func (c CategoricalMLPConfig) valueFn() network.NeuralNet {
	return c.vValueFn
}

// trainValueFn returns the constructed value function to train
func (c CategoricalMLPConfig) trainValueFn() network.NeuralNet {
	return c.vTrainValueFn
}

// initWFn returns the weight initializer of the config
func (c CategoricalMLPConfig) initWFn() *initwfn.InitWFn {
	return c.InitWFn
}

// policySolver returns the constructed policy solver
func (c CategoricalMLPConfig) policySolver() *solver.Solver {
	return c.PolicySolver
}

// vSolver returns the constructed value function solver
func (c CategoricalMLPConfig) vSolver() *solver.Solver {
	return c.VSolver
}

// batchSize returns the batch size of the config
func (c CategoricalMLPConfig) batchSize() int {
	return c.BatchSize()
}

// valueGradSteps returns the number of gradient steps per epoch to
// take for the value function
func (c CategoricalMLPConfig) valueGradSteps() int {
	return c.ValueGradSteps
}

// epochLength returns the epoch length of the config
func (c CategoricalMLPConfig) epochLength() int {
	return c.EpochLength
}

// lambda returns the λ of the config for GAE
func (c CategoricalMLPConfig) lambda() float64 {
	return c.Lambda
}

// gamma returns the ℽ of the config for GAE
func (c CategoricalMLPConfig) gamma() float64 {
	return c.Gamma
}
