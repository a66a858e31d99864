// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/environment/envconfig"
	"github.com/samuelfneumann/gorl/experiment/checkpointer"
	"github.com/samuelfneumann/gorl/experiment/tracker"
)

// Experiment runs an agent on an environment and records the data
// generated. Each TimeStep the environment produces is sent to the
// experiment's Trackers, which cache the data they are interested in.
// Save then writes all cached data to disk, usually after the
// experiment has finished. Run runs episodes until the maximum
// timestep limit or some other stopping condition is reached, and
// RunEpisode runs a single episode.
type Experiment interface {
	// Run runs the experiment to completion
	Run() error

	// RunEpisode runs a single episode, returning whether the
	// experiment has finished
	RunEpisode() (bool, error)

	// Save writes all tracked data to disk
	Save() error

	// Register adds a Tracker to the (possibly already running)
	// experiment. Useful for tracking data only after some event.
	Register(t tracker.Tracker)
}

// Type identifies a type of Experiment
type Type string

// Experiment types available for configuration
const (
	OnlineExp Type = "OnlineExperiment"
)

// Config describes a runnable experiment: an environment, a list of
// agent hyperparameter settings, and the number of timesteps to run
// for. Config is JSON serializable so that experiments can be
// described by configuration files.
type Config struct {
	Type
	MaxSteps  uint
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfigList
}

// CreateExp creates the experiment the Config describes, using the
// agent hyperparameter setting at index i of the Config's agent
// configuration list. The argument Trackers and Checkpointers record
// data and save the agent while the experiment runs.
func (c Config) CreateExp(i int, seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (Experiment, error) {
	e, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"environment: %v", err)
	}

	a, err := c.AgentConf.At(i).CreateAgent(e, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(e, a, c.MaxSteps, t, check), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
