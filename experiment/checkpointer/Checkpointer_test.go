package checkpointer

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// counter is a Serializable stub
type counter struct {
	N int
}

func (c *counter) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.N); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *counter) GobDecode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&c.N)
}

func step(number int) ts.TimeStep {
	obs := mat.NewVecDense(1, []float64{0.0})
	return ts.New(ts.Mid, 0.0, 1.0, obs, number)
}

func TestNStepCheckpointsOnInterval(t *testing.T) {
	dir := t.TempDir()
	object := &counter{}
	check := NewNStep(3, object,
		FilenameEnumerator(0, filepath.Join(dir, "agent"), ".bin"))

	for i := 0; i < 7; i++ {
		object.N = i
		if err := check.Checkpoint(step(i)); err != nil {
			t.Fatalf("could not checkpoint on step %v: %v", i, err)
		}
	}

	// Steps 0, 3, and 6 fall on the interval
	for i := 1; i <= 3; i++ {
		name := filepath.Join(dir, "agent"+string(rune('0'+i))+".bin")
		if _, err := os.Stat(name); err != nil {
			t.Errorf("missing checkpoint file %v: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "agent4.bin")); err == nil {
		t.Error("checkpoint written off the checkpointing interval")
	}
}

func TestNStepCheckpointRestores(t *testing.T) {
	dir := t.TempDir()
	object := &counter{N: 21}
	check := NewNStep(1, object,
		FilenameEnumerator(0, filepath.Join(dir, "agent"), ".bin"))

	if err := check.Checkpoint(step(0)); err != nil {
		t.Fatalf("could not checkpoint: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "agent1.bin"))
	if err != nil {
		t.Fatalf("could not open checkpoint file: %v", err)
	}
	defer file.Close()

	restored := &counter{}
	if err := gob.NewDecoder(file).Decode(restored); err != nil {
		t.Fatalf("could not decode checkpoint: %v", err)
	}
	if restored.N != 21 {
		t.Errorf("wrong restored value: \n\twant(21)\n\thave(%v)",
			restored.N)
	}
}
