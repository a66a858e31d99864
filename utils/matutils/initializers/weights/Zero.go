package weights

// ZeroUV implements the distuv.Rander interface so that zero
// initialization can be accomplished through the weight initializers
// which take a distuv.Rander argument
type ZeroUV struct{}

// NewZeroUV returns a new ZeroUV
func NewZeroUV() ZeroUV {
	return ZeroUV{}
}

// Rand always returns 0
func (z ZeroUV) Rand() float64 {
	return 0.0
}
