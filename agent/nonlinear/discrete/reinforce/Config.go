package reinforce

import (
	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

// config implements an interface of all REINFORCE configurations.
// This is needed so that the REINFORCE constructor can take in a
// configuration for any policy parameterization.
type config interface {
	agent.Config

	trainPolicy() agent.LogPdfOfer
	behaviourPolicy() agent.NNPolicy

	valueFn() network.NeuralNet
	trainValueFn() network.NeuralNet

	initWFn() *initwfn.InitWFn

	policySolver() *solver.Solver
	vSolver() *solver.Solver

	batchSize() int
	epochLength() int

	// Number of gradient steps to take for the value function per
	// epoch
	valueGradSteps() int

	// Generalized Advantage Estimation
	lambda() float64
	gamma() float64
}
