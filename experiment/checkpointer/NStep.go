package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Serializable

	// filename returns the name of the file to save the object in.
	//
	// If each checkpoint should be saved in a separate file with an
	// incrementing integer suffix (file1.bin, file2.bin, ...,
	// fileK.bin), use FilenameEnumerator to construct this function.
	// If the checkpoint files should instead be stamped with the time
	// they were written, use FileTimer. For example:
	//
	//	n := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a Checkpointer that saves its object every n steps
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if the argument TimeStep falls
// on a checkpointing interval
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.Number%n.interval != 0 {
		return nil
	}

	file, err := os.Create(n.filename())
	if err != nil {
		return fmt.Errorf("checkpoint: could not create file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(n.object); err != nil {
		return fmt.Errorf("checkpoint: could not encode object: %v", err)
	}
	return nil
}
