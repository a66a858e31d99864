package weights

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LinearUV initializes a single linear layer of weights, with each
// weight drawn independently from a univariate distribution
type LinearUV struct {
	distuv.Rander
}

// NewLinearUV returns a new LinearUV drawing weights from rand
func NewLinearUV(rand distuv.Rander) LinearUV {
	if rand == nil {
		panic("rand cannot be nil")
	}
	return LinearUV{rand}
}

// Initialize fills weights with values drawn from the distribution
func (l LinearUV) Initialize(weights *mat.Dense) {
	if weights == nil {
		return
	}

	backingData := weights.RawMatrix().Data
	for i := range backingData {
		backingData[i] = l.Rand()
	}
}
