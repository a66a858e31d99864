// Package checkpointer implements periodic saving of agents during an
// experiment
package checkpointer

import (
	"encoding/gob"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// Serializable is an object that can be saved and later restored
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer saves Serializable objects based on the TimeSteps an
// experiment generates
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
