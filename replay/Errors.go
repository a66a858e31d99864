package replay

import "errors"

// BufferError implements errors unique to a replay buffer
type BufferError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *BufferError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errEmptyBuffer error = errors.New("buffer empty")

var errInsufficientSamples = errors.New("minimum capacity not yet reached")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer.
//
// A buffer has too few samples to sample if its current size is less
// than the sampler's minimum capacity.
func IsInsufficientSamples(err error) bool {
	if replayErr, ok := err.(*BufferError); ok {
		err = replayErr.Err
	}
	return err == errInsufficientSamples
}

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty
func IsEmptyBuffer(err error) bool {
	if replayErr, ok := err.(*BufferError); ok {
		err = replayErr.Err
	}
	return err == errEmptyBuffer
}
