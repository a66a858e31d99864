package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a gorgonia computational
// graph. Inputs to a NeuralNet are always matrices of shape
// (batch, features), and each forward pass predicts for the whole
// batch at once.
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// Clone returns a copy of the network on a new graph
	Clone() (NeuralNet, error)

	// CloneWithBatch returns a copy of the network on a new graph
	// with a new input batch size
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of samples in an input batch
	BatchSize() int

	// Features returns the number of features in a single input
	// observation
	Features() int

	// Outputs returns the number of values each output layer predicts
	Outputs() int

	// OutputLayers returns the number of output layers
	OutputLayers() int

	// SetInput sets the value of the input node before running the
	// forward pass
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	Set(NeuralNet) error

	// Polyak sets the weights of the network to a polyak average of
	// its own weights and those of another network
	Polyak(NeuralNet, float64) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of each output layer after the last
	// run of the graph
	Output() []G.Value

	// Prediction returns the nodes of the computational graph that
	// store the predictions of the network
	Prediction() []*G.Node
}

// Set sets the weights of dest to the weights of source
func Set(dest, source NeuralNet) error {
	return dest.Set(source)
}

// Polyak sets the weights of dest to a polyak average of its own
// weights and those of source, moving a fraction tau toward source
func Polyak(dest, source NeuralNet, tau float64) error {
	return dest.Polyak(source, tau)
}
