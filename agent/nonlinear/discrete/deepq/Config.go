package deepq

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/gorl/agent"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.EGreedyDeepQMLP, ConfigList{})
}

// ConfigList implements a list of Config's in a more efficient manner
// than simply using a slice of Config's.
type ConfigList struct {
	PolicyLayers [][]int                 // Layer sizes in neural net
	Biases       [][]bool                // Whether each layer should have a bias
	Activations  [][]*network.Activation // Activation of each layer
	Solver       []*solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn []*initwfn.InitWFn

	Epsilon []float64 // Behaviour policy epsilon

	// Experience replay parameters
	BatchSize         []int
	MinReplayCapacity []int
	MaxReplayCapacity []int

	// Update target parameters
	NStep []int
	Gamma []float64

	// Target net updates
	Tau                  []float64 // Polyak averaging constant
	TargetUpdateInterval []int     // Gradient steps between target updates
}

// NewConfigList returns a new ConfigList as an agent.TypedConfigList.
// Because the returned value is a typed list, it can safely be JSON
// serialized and deserialized without specifying what the type of
// the ConfigList is.
func NewConfigList(
	PolicyLayers [][]int,
	Biases [][]bool,
	Activations [][]*network.Activation,
	Solver []*solver.Solver,
	InitWFn []*initwfn.InitWFn,
	Epsilon []float64,
	BatchSize []int,
	MinReplayCapacity []int,
	MaxReplayCapacity []int,
	NStep []int,
	Gamma []float64,
	Tau []float64,
	TargetUpdateInterval []int,
) agent.TypedConfigList {
	configs := ConfigList{
		PolicyLayers:         PolicyLayers,
		Biases:               Biases,
		Activations:          Activations,
		Solver:               Solver,
		InitWFn:              InitWFn,
		Epsilon:              Epsilon,
		BatchSize:            BatchSize,
		MinReplayCapacity:    MinReplayCapacity,
		MaxReplayCapacity:    MaxReplayCapacity,
		NStep:                NStep,
		Gamma:                Gamma,
		Tau:                  Tau,
		TargetUpdateInterval: TargetUpdateInterval,
	}

	return agent.NewTypedConfigList(configs)
}

// Type returns the type of Config stored in the list
func (c ConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields returns the number of settable fields in a Config
func (c ConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config of the same type as that stored
// by the ConfigList
func (c ConfigList) Config() agent.Config {
	return Config{}
}

// Len returns the number of Config's in the list
func (c ConfigList) Len() int {
	return len(c.PolicyLayers) * len(c.Biases) * len(c.Activations) *
		len(c.Solver) * len(c.InitWFn) * len(c.Epsilon) *
		len(c.BatchSize) * len(c.MinReplayCapacity) *
		len(c.MaxReplayCapacity) * len(c.NStep) * len(c.Gamma) *
		len(c.Tau) * len(c.TargetUpdateInterval)
}

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Epsilon float64 // Behaviour policy epsilon

	// Experience replay parameters
	BatchSize         int
	MinReplayCapacity int
	MaxReplayCapacity int

	// Update target parameters
	NStep int
	Gamma float64

	// Target net updates
	Tau                  float64 // Polyak averaging constant
	TargetUpdateInterval int     // Gradient steps between target updates
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.EGreedyDeepQMLP
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.BatchSize)
	}

	if c.MaxReplayCapacity < c.MinReplayCapacity {
		return fmt.Errorf("validate: maximum replay capacity must not be "+
			"below minimum replay capacity \n\twant(>%v) \n\thave(%v)",
			c.MinReplayCapacity, c.MaxReplayCapacity)
	}

	if c.NStep < 1 {
		return fmt.Errorf("validate: update targets must span a positive "+
			"number of steps \n\twant(>0) \n\thave(%v)", c.NStep)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive timestep intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DeepQ)
	return ok
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(e env.Environment,
	seed uint64) (agent.Agent, error) {
	return New(e, c, seed)
}
