package replay

import (
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gorl/utils/intutils"
)

// Sampler implements functionality for choosing which transitions
// are drawn from a replay buffer
type Sampler interface {
	// Sample selects the indices of transitions to draw from the
	// buffer
	Sample(b *Buffer) ([]int, error)

	// BatchSize returns the number of transitions that will be
	// selected
	BatchSize() int
}

// uniformSampler is a Sampler which selects transitions from a
// replay buffer uniformly randomly with replacement
type uniformSampler struct {
	samples     int
	minCapacity int
	rng         *rand.Rand
}

// NewUniformSampler returns a new Sampler which selects transitions
// uniformly randomly from a replay buffer. No samples are drawn
// until the buffer holds at least minCapacity transitions.
func NewUniformSampler(samples, minCapacity int, seed uint64) Sampler {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSampler{
		samples:     samples,
		minCapacity: intutils.Max(minCapacity, 1),
		rng:         rng,
	}
}

// BatchSize gets the number of samples in a batch drawn from the
// buffer
func (u *uniformSampler) BatchSize() int {
	return u.samples
}

// Sample selects a number of indices at which to draw transitions
// from the buffer
func (u *uniformSampler) Sample(b *Buffer) ([]int, error) {
	if b.Len() == 0 {
		return nil, &BufferError{Op: "sample", Err: errEmptyBuffer}
	}
	if b.Len() < u.minCapacity {
		return nil, &BufferError{Op: "sample", Err: errInsufficientSamples}
	}

	selected := make([]int, u.BatchSize())
	for i := range selected {
		selected[i] = (b.oldest() + u.rng.Intn(b.Len())) % b.Capacity()
	}
	return selected, nil
}

// fifoSampler is a Sampler which selects the oldest transitions in
// the buffer
type fifoSampler struct {
	samples int
}

// NewFifoSampler returns a new Sampler which draws the oldest
// transitions from a replay buffer
func NewFifoSampler(samples int) Sampler {
	return &fifoSampler{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the
// buffer
func (f *fifoSampler) BatchSize() int {
	return f.samples
}

// Sample selects a number of indices at which to draw transitions
// from the buffer
func (f *fifoSampler) Sample(b *Buffer) ([]int, error) {
	if b.Len() == 0 {
		return nil, &BufferError{Op: "sample", Err: errEmptyBuffer}
	}

	n := intutils.Min(f.BatchSize(), b.Len())
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = (b.oldest() + i) % b.Capacity()
	}
	return selected, nil
}
