package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/agent"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/network"
	ts "github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// CategoricalMLP implements a categorical policy over discrete actions
// parameterized by a feedforward neural network/MLP. The network
// outputs one logit per action, and actions are sampled from the
// softmax distribution over these logits.
//
// The policy also computes the log probability of actions taken in
// given states, so that it can be used with policy gradient
// algorithms. The log probability computation is part of the policy's
// computational graph: external gradients can flow through it.
type CategoricalMLP struct {
	network.NeuralNet

	// One-hot encoding of the actions for which the log probability
	// should be computed
	actions *G.Node

	logPdf    *G.Node
	logPdfVal G.Value

	vm   G.VM // Non-nil only for batch size 1
	eval bool

	rng    *rand.Rand
	source rand.Source
	seed   uint64
}

// NewCategoricalMLP creates and returns a new CategoricalMLP. The
// hiddenSizes, biases, and activations parameters determine the
// architecture of the hidden layers of the policy network. A final
// linear layer is always added so that the number of network outputs
// equals the number of actions in the environment.
func NewCategoricalMLP(e env.Environment, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn, seed uint64) (agent.LogPdfOfer, error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("newcategoricalmlp: categorical policy " +
			"cannot be used with continuous actions")
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	net, err := network.NewMultiHeadMLP(features, batch, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not create "+
			"policy network: %v", err)
	}

	source := rand.NewSource(seed)
	rng := rand.New(source)

	p := &CategoricalMLP{
		NeuralNet: net,
		rng:       rng,
		source:    source,
		seed:      seed,
	}

	// Add the log probability computation to the policy's graph. The
	// actions node holds a one-hot encoding of input actions so that
	// the log probability of only those actions is computed.
	logits := net.Prediction()[0]
	p.actions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, numActions), G.WithName("actionsOneHot"),
		G.WithInit(G.Zeroes()))

	selected, err := G.HadamardProd(logits, p.actions)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not compute "+
			"selected logits: %v", err)
	}
	selectedLogits, err := G.Sum(selected, 1)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not sum selected "+
			"logits: %v", err)
	}
	lse, err := LogSumExp(logits, 1)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not compute "+
			"log sum exp: %v", err)
	}
	p.logPdf, err = G.Sub(selectedLogits, lse)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not compute "+
			"log probability: %v", err)
	}
	G.Read(p.logPdf, &p.logPdfVal)

	if batch == 1 {
		p.vm = G.NewTapeMachine(g)
	}

	return p, nil
}

// LogSumExp adds the numerically stable log sum exp of the input node
// along the given axis to the node's computational graph, returning
// the resulting node.
func LogSumExp(input *G.Node, along int) (*G.Node, error) {
	max, err := G.Max(input, along)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not compute max: %v", err)
	}

	exponent, err := G.BroadcastSub(input, max, nil, []byte{1})
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not subtract max: %v", err)
	}
	exponent, err = G.Exp(exponent)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not exponentiate: %v", err)
	}

	sum, err := G.Sum(exponent, along)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not sum exponent: %v", err)
	}
	log, err := G.Log(sum)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not take log: %v", err)
	}

	return G.Add(log, max)
}

// LogPdfOf sets the policy's inputs so that running the policy's graph
// computes the log probability of taking the argument actions in the
// argument states. The state observations and actions should be
// flattened along the batch dimension. The log probability is not
// computed by this function. Instead, this function returns the node
// holding the log probability computation, which will hold the value
// after the policy's graph has next been run.
func (c *CategoricalMLP) LogPdfOf(states, actions []float64) (*G.Node,
	error) {
	if err := c.SetInput(states); err != nil {
		return nil, fmt.Errorf("logpdfof: could not set state input: %v", err)
	}

	numActions := c.Outputs()
	rows := len(actions)
	if rows != c.BatchSize() {
		return nil, fmt.Errorf("logpdfof: expected %v actions but got %v",
			c.BatchSize(), rows)
	}

	oneHot := make([]float64, rows*numActions)
	for i, action := range actions {
		index := int(action)
		if index < 0 || index >= numActions {
			return nil, fmt.Errorf("logpdfof: action %v out of range [0, %v)",
				index, numActions)
		}
		oneHot[i*numActions+index] = 1.0
	}

	actionsTensor := tensor.New(
		tensor.WithBacking(oneHot),
		tensor.WithShape(rows, numActions),
	)
	if err := G.Let(c.actions, actionsTensor); err != nil {
		return nil, fmt.Errorf("logpdfof: could not set actions: %v", err)
	}

	return c.logPdf, nil
}

// LogPdfNode returns the node of the policy's computational graph
// that computes the log probability of actions given states.
func (c *CategoricalMLP) LogPdfNode() *G.Node {
	return c.logPdf
}

// LogPdfVal returns the value of the node returned by LogPdfNode
func (c *CategoricalMLP) LogPdfVal() G.Value {
	return c.logPdfVal
}

// Network returns the network of the policy
func (c *CategoricalMLP) Network() network.NeuralNet {
	return c.NeuralNet
}

// Clone is not implemented for CategoricalMLP. Construct separate
// behaviour and learning policies and synchronize their weights with
// network.Set instead.
func (c *CategoricalMLP) Clone() (agent.NNPolicy, error) {
	return nil, fmt.Errorf("clone: CategoricalMLP cannot be cloned")
}

// CloneWithBatch is not implemented for CategoricalMLP
func (c *CategoricalMLP) CloneWithBatch(batch int) (agent.NNPolicy, error) {
	return nil, fmt.Errorf("clonewithbatch: CategoricalMLP cannot be cloned")
}

// Eval sets the policy to evaluation mode, in which the mode of the
// action distribution is selected instead of sampling.
func (c *CategoricalMLP) Eval() { c.eval = true }

// Train sets the policy to training mode
func (c *CategoricalMLP) Train() { c.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (c *CategoricalMLP) IsEval() bool { return c.eval }

// SelectAction runs the policy's forward pass on the observation of
// the argument timestep and samples an action from the softmax
// distribution over the predicted logits. The policy must have been
// constructed with a batch size of 1.
func (c *CategoricalMLP) SelectAction(t ts.TimeStep) *mat.VecDense {
	if c.vm == nil {
		panic("selectaction: cannot select actions with a batch policy")
	}

	obs := t.Observation.RawVector().Data
	if err := c.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set input: %v", err))
	}
	if err := c.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy: %v", err))
	}
	logits := c.Output()[0].Data().([]float64)
	c.vm.Reset()

	if c.eval {
		_, maxIndices := floatutils.MaxSlice(logits)
		action := maxIndices[c.rng.Intn(len(maxIndices))]
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	probs := softmax(logits)
	dist := distuv.NewCategorical(probs, c.source)
	return mat.NewVecDense(1, []float64{dist.Rand()})
}

// Close closes the policy's VM
func (c *CategoricalMLP) Close() error {
	if c.vm == nil {
		return nil
	}
	return c.vm.Close()
}

// softmax computes the numerically stable softmax of logits
func softmax(logits []float64) []float64 {
	max, _ := floatutils.MaxSlice(logits)

	probs := make([]float64, len(logits))
	sum := 0.0
	for i, logit := range logits {
		probs[i] = math.Exp(logit - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
