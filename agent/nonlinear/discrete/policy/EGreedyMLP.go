// Package policy implements policies for discrete action spaces using
// neural network function approximation with Gorgonia.
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/agent"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/network"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// MultiHeadEGreedyMLP implements an epsilon greedy policy using a
// feedforward neural network/MLP. Given an environment with N actions,
// the neural network will produce N outputs, each predicting the
// value of a distinct action.
//
// When constructed with a batch size of 1, the policy owns a VM for
// its computational graph and SelectAction runs the forward pass
// itself. When constructed with a larger batch size, the policy is a
// batch network for learning: callers run its graph with an external
// VM and the policy only provides the network.
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	epsilon float64
	eval    bool

	vm G.VM // Non-nil only for batch size 1

	rng  *rand.Rand
	seed int64
}

// NewMultiHeadEGreedyMLP creates and returns a new MultiHeadEGreedyMLP.
// The hiddenSizes parameter defines the number of nodes in each hidden
// layer. The biases parameter outlines which layers should include
// bias units. The activations parameter determines the activation
// function for each layer. The batch parameter determines the number
// of inputs in a batch.
//
// Note that this constructor will always add an additional final
// linear layer (with a bias unit and no activation) such that the
// number of network outputs equals the number of actions in the
// environment. Because of this, it is easy to create a linear EGreedy
// policy by setting hiddenSizes to []int{}, biases to []bool{}, and
// activations to []*network.Activation{}.
func NewMultiHeadEGreedyMLP(epsilon float64, e env.Environment, batch int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*network.Activation,
	seed int64) (agent.EGreedyNNPolicy, error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("newmultiheadegreedymlp: egreedy policy " +
			"cannot be used with continuous actions")
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	net, err := network.NewMultiHeadMLP(features, batch, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newmultiheadegreedymlp: could not create "+
			"policy network: %v", err)
	}

	source := rand.NewSource(seed)
	rng := rand.New(source)

	p := &MultiHeadEGreedyMLP{
		NeuralNet: net,
		epsilon:   epsilon,
		rng:       rng,
		seed:      seed,
	}
	if batch == 1 {
		p.vm = G.NewTapeMachine(net.Graph())
	}

	return p, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// Clone clones a MultiHeadEGreedyMLP
func (e *MultiHeadEGreedyMLP) Clone() (agent.NNPolicy, error) {
	return e.CloneWithBatch(e.BatchSize())
}

// CloneWithBatch clones a MultiHeadEGreedyMLP with a new input batch
// size.
func (e *MultiHeadEGreedyMLP) CloneWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := e.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone "+
			"policy network: %v", err)
	}

	source := rand.NewSource(e.seed)
	rng := rand.New(source)

	p := &MultiHeadEGreedyMLP{
		NeuralNet: net,
		epsilon:   e.epsilon,
		eval:      e.eval,
		rng:       rng,
		seed:      e.seed,
	}
	if batchSize == 1 {
		p.vm = G.NewTapeMachine(net.Graph())
	}

	return p, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *MultiHeadEGreedyMLP) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy.
func (e *MultiHeadEGreedyMLP) Epsilon() float64 {
	return e.epsilon
}

// Eval sets the policy to evaluation mode, in which action selection
// is always greedy.
func (e *MultiHeadEGreedyMLP) Eval() { e.eval = true }

// Train sets the policy to training mode
func (e *MultiHeadEGreedyMLP) Train() { e.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (e *MultiHeadEGreedyMLP) IsEval() bool { return e.eval }

// SelectAction runs the policy's forward pass on the observation of
// the argument timestep and selects an action ε-greedily with respect
// to the predicted action values. The policy must have been
// constructed with a batch size of 1.
func (e *MultiHeadEGreedyMLP) SelectAction(t ts.TimeStep) *mat.VecDense {
	if e.vm == nil {
		panic("selectaction: cannot select actions with a batch policy")
	}

	obs := t.Observation.RawVector().Data
	if err := e.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set input: %v", err))
	}
	if err := e.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy: %v", err))
	}
	actionValues := e.Output()[0].Data().([]float64)
	e.vm.Reset()

	// With probability epsilon return a random action
	if !e.eval && e.rng.Float64() < e.epsilon {
		action := e.rng.Intn(e.numActions())
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	// If multiple actions have the max value, break ties randomly
	_, maxIndices := floatutils.MaxSlice(actionValues)
	action := maxIndices[e.rng.Intn(len(maxIndices))]
	return mat.NewVecDense(1, []float64{float64(action)})
}

// Close closes the policy's VM
func (e *MultiHeadEGreedyMLP) Close() error {
	if e.vm == nil {
		return nil
	}
	return e.vm.Close()
}

// numActions returns the number of actions that the policy chooses
// between.
func (e *MultiHeadEGreedyMLP) numActions() int {
	return e.Outputs()
}

// GobEncode implements the gob.GobEncoder interface
func (e *MultiHeadEGreedyMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(&e.NeuralNet); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v", err)
	}
	if err := enc.Encode(e.epsilon); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode epsilon: %v", err)
	}
	if err := enc.Encode(e.seed); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode seed: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadEGreedyMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	if err := dec.Decode(&e.NeuralNet); err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}
	if err := dec.Decode(&e.epsilon); err != nil {
		return fmt.Errorf("gobdecode: could not decode epsilon: %v", err)
	}
	if err := dec.Decode(&e.seed); err != nil {
		return fmt.Errorf("gobdecode: could not decode seed: %v", err)
	}

	e.rng = rand.New(rand.NewSource(e.seed))
	if e.BatchSize() == 1 {
		e.vm = G.NewTapeMachine(e.Graph())
	}

	return nil
}
