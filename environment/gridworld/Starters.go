package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/gorl/environment"
)

// SingleStart implements a Starter which always starts episodes at a
// single fixed cell
type SingleStart struct {
	state *mat.VecDense
	r, c  int
}

// NewSingleStart returns a new SingleStart which starts episodes at
// cell (x, y) of an r x c gridworld
func NewSingleStart(x, y, r, c int) (env.Starter, error) {
	if x >= c {
		return nil, fmt.Errorf("singleStart: x = %d ≥ cols = %d", x, c)
	} else if y >= r {
		return nil, fmt.Errorf("singleStart: y = %d ≥ rows = %d", y, r)
	}

	start := cToV(x, y, r, c)
	return &SingleStart{start, r, c}, nil
}

// Start returns the starting state
func (s *SingleStart) Start() *mat.VecDense {
	start := mat.NewVecDense(s.state.Len(), nil)
	start.CopyVec(s.state)
	return start
}
