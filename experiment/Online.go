package experiment

import (
	"fmt"
	"time"

	"github.com/gosuri/uilive"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/gorl/agent"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/experiment/checkpointer"
	"github.com/samuelfneumann/gorl/experiment/tracker"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// stopWindow is the number of recent episodes whose mean return is
// given to a StopFn
const stopWindow = 10

// StopFn determines whether an experiment should stop early. After
// each completed episode it is called with the mean return of up to
// the last stopWindow episodes, and the experiment stops once it
// returns true.
type StopFn func(meanReturn float64) bool

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	environment  env.Environment
	agent        agent.Agent
	maxSteps     uint
	currentSteps uint

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	stop          StopFn

	lastReturn    float64
	recentReturns []float64
	progress      *uilive.Writer
	lastRefresh   time.Time
}

// NewOnline creates an online experiment on a given environment with
// a given agent. The steps parameter determines how many timesteps the
// experiment runs for. The argument Trackers determine what data is
// recorded, and the argument Checkpointers determine when the agent
// is saved.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer) *Online {
	return &Online{
		environment:   e,
		agent:         a,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
		progress:      uilive.New(),
	}
}

// Register adds a Tracker to the experiment so that additional data
// generated during the experiment is recorded
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// StopOn sets a stopping condition, checked after each completed
// episode
func (o *Online) StopOn(f StopFn) {
	o.stop = f
}

// RunEpisode runs a single episode, returning whether the maximum
// timestep limit has been reached
func (o *Online) RunEpisode() (bool, error) {
	step := o.environment.Reset()
	if err := o.agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: could not observe first "+
			"timestep: %v", err)
	}
	o.track(step)

	episodeReturn := 0.0
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		action := o.agent.SelectAction(step)
		step, _ = o.environment.Step(action)
		episodeReturn += step.Reward

		o.track(step)
		if err := o.checkpoint(step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		if err := o.agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: could not observe "+
				"timestep: %v", err)
		}
		if err := o.agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: could not step agent: %v",
				err)
		}

		o.report()
	}
	o.agent.EndEpisode()

	if step.Last() {
		o.lastReturn = episodeReturn
		o.recentReturns = append(o.recentReturns, episodeReturn)
		if len(o.recentReturns) > stopWindow {
			o.recentReturns = o.recentReturns[1:]
		}
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the experiment: episodes are run until the maximum timestep
// limit is reached or the stopping condition, if any, is satisfied.
func (o *Online) Run() error {
	o.progress.Start()
	defer o.progress.Stop()

	for {
		done, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if done {
			break
		}
		if o.stop != nil && len(o.recentReturns) > 0 &&
			o.stop(stat.Mean(o.recentReturns, nil)) {
			break
		}
	}

	if closer, ok := o.agent.(agent.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("run: could not close agent: %v", err)
		}
	}
	return nil
}

// Save writes all data cached by the experiment's Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track sends the current TimeStep to each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint sends the current TimeStep to each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}

// report refreshes the progress line at most once per second
func (o *Online) report() {
	if time.Since(o.lastRefresh) < time.Second {
		return
	}
	o.lastRefresh = time.Now()

	fmt.Fprintf(o.progress, "timestep %v / %v\tlast return: %v\n",
		o.currentSteps, o.maxSteps, o.lastReturn)
}
