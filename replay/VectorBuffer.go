package replay

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// VectorBuffer stores transitions gathered from multiple environments
// running in parallel. Each environment gets its own sub-buffer, so
// transitions of different environments are never interleaved within
// an episode chain.
//
// Transitions are identified by global indices. The transitions of
// environment e occupy global indices [e*capacity, (e+1)*capacity),
// where capacity is the per-environment capacity. Prev and Next
// operate on global indices and never cross environments.
type VectorBuffer struct {
	buffers  []*Buffer
	capacity int // per-environment capacity
	seed     uint64
	rng      *rand.Rand
}

// NewVectorBuffer returns a new VectorBuffer holding transitions of
// numEnvs environments with the argument per-environment capacity
func NewVectorBuffer(numEnvs, featureSize, actionSize, capacity int,
	seed uint64) (*VectorBuffer, error) {
	if numEnvs <= 0 {
		return nil, fmt.Errorf("newVectorBuffer: number of environments "+
			"must be positive, got %v", numEnvs)
	}

	buffers := make([]*Buffer, numEnvs)
	for i := range buffers {
		var err error
		buffers[i], err = NewBuffer(featureSize, actionSize, capacity)
		if err != nil {
			return nil, fmt.Errorf("newVectorBuffer: %v", err)
		}
	}

	source := rand.NewSource(seed)

	return &VectorBuffer{
		buffers:  buffers,
		capacity: capacity,
		seed:     seed,
		rng:      rand.New(source),
	}, nil
}

// NumEnvs returns the number of environments the buffer stores
// transitions for
func (v *VectorBuffer) NumEnvs() int {
	return len(v.buffers)
}

// Len returns the total number of stored transitions across all
// environments
func (v *VectorBuffer) Len() int {
	total := 0
	for _, b := range v.buffers {
		total += b.Len()
	}
	return total
}

// Add stores a transition of environment envID
func (v *VectorBuffer) Add(envID int, step ts.TimeStep,
	action *mat.VecDense, nextStep ts.TimeStep) error {
	if envID < 0 || envID >= len(v.buffers) {
		return &BufferError{
			Op: "add",
			Err: fmt.Errorf("environment %v out of range [0, %v)", envID,
				len(v.buffers)),
		}
	}
	return v.buffers[envID].Add(step, action, nextStep)
}

// env returns the environment and local index of a global index
func (v *VectorBuffer) env(i int) (int, int) {
	envID := i / v.capacity
	if envID < 0 || envID >= len(v.buffers) {
		panic(fmt.Sprintf("global index %v out of range [0, %v)", i,
			len(v.buffers)*v.capacity))
	}
	return envID, i % v.capacity
}

// global returns the global index of local index i in environment
// envID
func (v *VectorBuffer) global(envID, i int) int {
	return envID*v.capacity + i
}

// Prev returns the global index of the transition preceding i in the
// same episode, or i if it is the first of its episode
func (v *VectorBuffer) Prev(i int) int {
	envID, local := v.env(i)
	return v.global(envID, v.buffers[envID].Prev(local))
}

// Next returns the global index of the transition following i in the
// same episode, or i if it is the last of its episode
func (v *VectorBuffer) Next(i int) int {
	envID, local := v.env(i)
	return v.global(envID, v.buffers[envID].Next(local))
}

// UnfinishedIndices returns the global indices of the most recent
// transitions of all environments whose episodes have not yet
// finished
func (v *VectorBuffer) UnfinishedIndices() []int {
	var indices []int
	for envID, b := range v.buffers {
		if i, ok := b.UnfinishedIndex(); ok {
			indices = append(indices, v.global(envID, i))
		}
	}
	return indices
}

// State returns a copy of the state of the transition at global
// index i
func (v *VectorBuffer) State(i int) *mat.VecDense {
	envID, local := v.env(i)
	return v.buffers[envID].State(local)
}

// Action returns a copy of the action of the transition at global
// index i
func (v *VectorBuffer) Action(i int) *mat.VecDense {
	envID, local := v.env(i)
	return v.buffers[envID].Action(local)
}

// NextState returns a copy of the next state of the transition at
// global index i
func (v *VectorBuffer) NextState(i int) *mat.VecDense {
	envID, local := v.env(i)
	return v.buffers[envID].NextState(local)
}

// Reward returns the reward of the transition at global index i
func (v *VectorBuffer) Reward(i int) float64 {
	envID, local := v.env(i)
	return v.buffers[envID].Reward(local)
}

// Discount returns the discount of the transition at global index i
func (v *VectorBuffer) Discount(i int) float64 {
	envID, local := v.env(i)
	return v.buffers[envID].Discount(local)
}

// Terminated returns whether the transition at global index i ended
// its episode by reaching a terminal state
func (v *VectorBuffer) Terminated(i int) bool {
	envID, local := v.env(i)
	return v.buffers[envID].Terminated(local)
}

// Truncated returns whether the transition at global index i ended
// its episode by being cut off at a timeout
func (v *VectorBuffer) Truncated(i int) bool {
	envID, local := v.env(i)
	return v.buffers[envID].Truncated(local)
}

// Sample selects n global indices uniformly randomly across all
// environments, weighting each environment by the number of
// transitions it has stored
func (v *VectorBuffer) Sample(n int) ([]int, error) {
	total := v.Len()
	if total == 0 {
		return nil, &BufferError{Op: "sample", Err: errEmptyBuffer}
	}

	selected := make([]int, n)
	for k := range selected {
		target := v.rng.Intn(total)
		for envID, b := range v.buffers {
			if target < b.Len() {
				local := (b.oldest() + target) % b.Capacity()
				selected[k] = v.global(envID, local)
				break
			}
			target -= b.Len()
		}
	}
	return selected, nil
}

// gobVectorBuffer mirrors VectorBuffer for gob serialization
type gobVectorBuffer struct {
	Buffers  []*Buffer
	Capacity int
	Seed     uint64
}

// GobEncode implements the gob.GobEncoder interface
func (v *VectorBuffer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(gobVectorBuffer{
		Buffers:  v.buffers,
		Capacity: v.capacity,
		Seed:     v.seed,
	})
	if err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode vector "+
			"buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (v *VectorBuffer) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))

	var decoded gobVectorBuffer
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("gobDecode: could not decode vector "+
			"buffer: %v", err)
	}

	v.buffers = decoded.Buffers
	v.capacity = decoded.Capacity
	v.seed = decoded.Seed
	v.rng = rand.New(rand.NewSource(decoded.Seed))
	return nil
}
