package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/gorl/timestep"
)

// Return tracks and saves the episodic return in an experiment. On
// each TimeStep the reward is accumulated into the return of the
// current episode, and the accumulated return is cached when the
// episode ends.
//
// Note: an episode must finish for its return to be saved. If the
// last episode in an experiment does not finish, its return is
// dropped.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates a Return Tracker which saves its data at filename
func NewReturn(filename string) *Return {
	return &Return{
		lastTimeStep: -1,
		filename:     filename,
	}
}

// Track records the reward seen on a TimeStep, accumulating the
// episodic return. New episodes are detected automatically.
//
// Track panics if called on non-sequential timesteps.
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: non-sequential timesteps tracked: "+
			"timestep %v --> timestep %v", r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward

	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	} else {
		r.lastTimeStep = step.Number
	}
}

// EpisodeReturns returns the episodic returns tracked so far
func (r *Return) EpisodeReturns() []float64 {
	return r.episodeReturns
}

// Save saves the tracked episodic returns to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(r.episodeReturns); err != nil {
		return fmt.Errorf("save: could not encode return data: %v", err)
	}
	return nil
}
