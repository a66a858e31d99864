// Package replay implements replay buffers which store environmental
// transitions and track which transitions belong to which episode.
//
// Buffers in this package record, for every transition, whether it
// ended its episode by reaching a terminal state or by being cut off
// at a timeout. Algorithms which bootstrap value estimates need this
// distinction: values are bootstrapped through timeouts but not
// through terminal states.
package replay

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// Buffer is a ring buffer of environmental transitions. Each
// transition stores a state, the action taken in that state, the
// reward and discount emitted on the transition, the next state, and
// flags recording whether the transition ended its episode.
//
// Transitions are identified by their slot index in the ring. The
// Prev and Next methods navigate between adjacent transitions of the
// same episode, returning their argument index at episode boundaries.
// Once the buffer is full, new transitions overwrite the oldest.
type Buffer struct {
	featureSize int
	actionSize  int
	capacity    int

	states     []float64
	actions    []float64
	nextStates []float64
	rewards    []float64
	discounts  []float64
	terminated []bool
	truncated  []bool

	insertIndex int // next slot to write
	size        int // number of filled slots
}

// NewBuffer returns a new Buffer which stores up to capacity
// transitions of featureSize-dimensional states and
// actionSize-dimensional actions
func NewBuffer(featureSize, actionSize, capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("newBuffer: capacity must be positive, "+
			"got %v", capacity)
	}
	if featureSize <= 0 || actionSize <= 0 {
		return nil, fmt.Errorf("newBuffer: feature size and action size "+
			"must be positive, got (%v, %v)", featureSize, actionSize)
	}

	return &Buffer{
		featureSize: featureSize,
		actionSize:  actionSize,
		capacity:    capacity,
		states:      make([]float64, capacity*featureSize),
		actions:     make([]float64, capacity*actionSize),
		nextStates:  make([]float64, capacity*featureSize),
		rewards:     make([]float64, capacity),
		discounts:   make([]float64, capacity),
		terminated:  make([]bool, capacity),
		truncated:   make([]bool, capacity),
	}, nil
}

// Add stores the transition from step to nextStep under action. The
// reward, discount, and episode end flags are taken from nextStep.
// If the buffer is full, the oldest transition is overwritten.
func (b *Buffer) Add(step ts.TimeStep, action *mat.VecDense,
	nextStep ts.TimeStep) error {
	if step.Observation.Len() != b.featureSize {
		return &BufferError{
			Op: "add",
			Err: fmt.Errorf("state length %v != feature size %v",
				step.Observation.Len(), b.featureSize),
		}
	}
	if nextStep.Observation.Len() != b.featureSize {
		return &BufferError{
			Op: "add",
			Err: fmt.Errorf("next state length %v != feature size %v",
				nextStep.Observation.Len(), b.featureSize),
		}
	}
	if action.Len() != b.actionSize {
		return &BufferError{
			Op: "add",
			Err: fmt.Errorf("action length %v != action size %v",
				action.Len(), b.actionSize),
		}
	}

	i := b.insertIndex
	copy(b.states[i*b.featureSize:(i+1)*b.featureSize],
		step.Observation.RawVector().Data)
	copy(b.actions[i*b.actionSize:(i+1)*b.actionSize],
		action.RawVector().Data)
	copy(b.nextStates[i*b.featureSize:(i+1)*b.featureSize],
		nextStep.Observation.RawVector().Data)
	b.rewards[i] = nextStep.Reward
	b.discounts[i] = nextStep.Discount
	b.terminated[i] = nextStep.TerminalEnd()
	b.truncated[i] = nextStep.Truncated()

	b.insertIndex = (b.insertIndex + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	return nil
}

// Len returns the number of transitions currently stored
func (b *Buffer) Len() int {
	return b.size
}

// Capacity returns the maximum number of transitions the buffer can
// store
func (b *Buffer) Capacity() int {
	return b.capacity
}

// FeatureSize returns the dimensionality of stored states
func (b *Buffer) FeatureSize() int {
	return b.featureSize
}

// ActionSize returns the dimensionality of stored actions
func (b *Buffer) ActionSize() int {
	return b.actionSize
}

// oldest returns the slot index of the oldest stored transition
func (b *Buffer) oldest() int {
	return (b.insertIndex - b.size + b.capacity) % b.capacity
}

// newest returns the slot index of the most recently stored
// transition
func (b *Buffer) newest() int {
	return (b.insertIndex - 1 + b.capacity) % b.capacity
}

// done returns whether transition i ended its episode
func (b *Buffer) done(i int) bool {
	return b.terminated[i] || b.truncated[i]
}

// validate panics if index i does not refer to a stored transition
func (b *Buffer) validate(i int) {
	if i < 0 || i >= b.capacity {
		panic(fmt.Sprintf("index %v out of range [0, %v)", i, b.capacity))
	}
	if b.size < b.capacity {
		if i >= b.insertIndex || i < b.oldest() {
			panic(fmt.Sprintf("index %v refers to an empty slot", i))
		}
	}
}

// Prev returns the index of the transition preceding i in the same
// episode. If i is the first stored transition of its episode, Prev
// returns i.
func (b *Buffer) Prev(i int) int {
	b.validate(i)

	if i == b.oldest() {
		return i
	}
	j := (i - 1 + b.capacity) % b.capacity
	if b.done(j) {
		return i
	}
	return j
}

// Next returns the index of the transition following i in the same
// episode. If i ended its episode or is the most recently stored
// transition, Next returns i.
func (b *Buffer) Next(i int) int {
	b.validate(i)

	if b.done(i) || i == b.newest() {
		return i
	}
	return (i + 1) % b.capacity
}

// UnfinishedIndex returns the index of the most recently stored
// transition if its episode has not yet finished. The second return
// value reports whether such a transition exists.
func (b *Buffer) UnfinishedIndex() (int, bool) {
	if b.size == 0 {
		return 0, false
	}
	i := b.newest()
	if b.done(i) {
		return 0, false
	}
	return i, true
}

// State returns a copy of the state of transition i
func (b *Buffer) State(i int) *mat.VecDense {
	b.validate(i)

	state := make([]float64, b.featureSize)
	copy(state, b.states[i*b.featureSize:(i+1)*b.featureSize])
	return mat.NewVecDense(b.featureSize, state)
}

// Action returns a copy of the action of transition i
func (b *Buffer) Action(i int) *mat.VecDense {
	b.validate(i)

	action := make([]float64, b.actionSize)
	copy(action, b.actions[i*b.actionSize:(i+1)*b.actionSize])
	return mat.NewVecDense(b.actionSize, action)
}

// NextState returns a copy of the next state of transition i
func (b *Buffer) NextState(i int) *mat.VecDense {
	b.validate(i)

	state := make([]float64, b.featureSize)
	copy(state, b.nextStates[i*b.featureSize:(i+1)*b.featureSize])
	return mat.NewVecDense(b.featureSize, state)
}

// Reward returns the reward of transition i
func (b *Buffer) Reward(i int) float64 {
	b.validate(i)
	return b.rewards[i]
}

// Discount returns the discount of transition i
func (b *Buffer) Discount(i int) float64 {
	b.validate(i)
	return b.discounts[i]
}

// Terminated returns whether transition i ended its episode by
// reaching a terminal state
func (b *Buffer) Terminated(i int) bool {
	b.validate(i)
	return b.terminated[i]
}

// Truncated returns whether transition i ended its episode by being
// cut off at a timeout
func (b *Buffer) Truncated(i int) bool {
	b.validate(i)
	return b.truncated[i]
}

// BatchFrom gathers the transitions at the argument indices into
// matrices for batch computation. States, actions, and next states
// are returned with one row per transition, matching the batch layout
// expected by neural networks in this module.
func (b *Buffer) BatchFrom(indices []int) (states, actions,
	nextStates *mat.Dense, rewards, discounts []float64) {
	batch := len(indices)

	stateData := make([]float64, b.featureSize*batch)
	actionData := make([]float64, b.actionSize*batch)
	nextStateData := make([]float64, b.featureSize*batch)
	rewards = make([]float64, batch)
	discounts = make([]float64, batch)

	for row, i := range indices {
		b.validate(i)
		copy(stateData[row*b.featureSize:(row+1)*b.featureSize],
			b.states[i*b.featureSize:(i+1)*b.featureSize])
		copy(nextStateData[row*b.featureSize:(row+1)*b.featureSize],
			b.nextStates[i*b.featureSize:(i+1)*b.featureSize])
		copy(actionData[row*b.actionSize:(row+1)*b.actionSize],
			b.actions[i*b.actionSize:(i+1)*b.actionSize])
		rewards[row] = b.rewards[i]
		discounts[row] = b.discounts[i]
	}

	states = mat.NewDense(batch, b.featureSize, stateData)
	actions = mat.NewDense(batch, b.actionSize, actionData)
	nextStates = mat.NewDense(batch, b.featureSize, nextStateData)
	return
}

// gobBuffer is the gob-serializable view of a Buffer
type gobBuffer struct {
	FeatureSize int
	ActionSize  int
	Capacity    int
	States      []float64
	Actions     []float64
	NextStates  []float64
	Rewards     []float64
	Discounts   []float64
	Terminated  []bool
	Truncated   []bool
	InsertIndex int
	Size        int
}

// GobEncode implements the gob.GobEncoder interface
func (b *Buffer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(gobBuffer{
		FeatureSize: b.featureSize,
		ActionSize:  b.actionSize,
		Capacity:    b.capacity,
		States:      b.states,
		Actions:     b.actions,
		NextStates:  b.nextStates,
		Rewards:     b.rewards,
		Discounts:   b.discounts,
		Terminated:  b.terminated,
		Truncated:   b.truncated,
		InsertIndex: b.insertIndex,
		Size:        b.size,
	})
	if err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (b *Buffer) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))

	var decoded gobBuffer
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("gobDecode: could not decode buffer: %v", err)
	}

	b.featureSize = decoded.FeatureSize
	b.actionSize = decoded.ActionSize
	b.capacity = decoded.Capacity
	b.states = decoded.States
	b.actions = decoded.Actions
	b.nextStates = decoded.NextStates
	b.rewards = decoded.Rewards
	b.discounts = decoded.Discounts
	b.terminated = decoded.Terminated
	b.truncated = decoded.Truncated
	b.insertIndex = decoded.InsertIndex
	b.size = decoded.Size
	return nil
}
