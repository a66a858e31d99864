// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/environment/box2d/puckworld"
	"github.com/samuelfneumann/gorl/environment/classiccontrol/acrobot"
	"github.com/samuelfneumann/gorl/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/gorl/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/gorl/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/gorl/environment/gridworld"
	"github.com/samuelfneumann/gorl/environment/gym"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package. For gym environments, the EnvName is the OpenAI Gym
// environment name, e.g. "CartPole-v0".
type EnvName string

// Environments available for configuration
const (
	Cartpole    EnvName = "Cartpole"
	Pendulum    EnvName = "Pendulum"
	MountainCar EnvName = "MountainCar"
	Acrobot     EnvName = "Acrobot"
	GridWorld   EnvName = "GridWorld"
	PuckWorld   EnvName = "PuckWorld"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The
// tasks that can be used with each environment are as follows:
//
//	Environment			Task
//	Cartpole			Balance
//	Pendulum			SwingUp
//	MountainCar			Goal
//	Acrobot				SwingUp
//	GridWorld			Goal
//	PuckWorld			Gather
type TaskName string

// Tasks available for configuration
const (
	Balance TaskName = "Balance"
	SwingUp TaskName = "SwingUp"
	Goal    TaskName = "Goal"
	Gather  TaskName = "Gather"
)

// Default gridworld layout
const (
	gridRows int = 5
	gridCols int = 5
)

// Config implements a specific configuration of a specific
// environment and specific task. Not all environments can have all
// tasks. When Gym is true, the Environment field holds the OpenAI
// Gym environment name and the Task field is ignored.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff uint
	Discount      float64
	Gym           bool
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff uint,
	discount float64, gymEnv bool) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
		Gym:           gymEnv,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if c.Gym {
		return gym.New(string(c.Environment), c.Discount, seed)
	}

	switch c.Environment {
	case Cartpole:
		e, step := CreateCartpole(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil

	case Pendulum:
		e, step := CreatePendulum(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil

	case MountainCar:
		e, step := CreateMountainCar(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil

	case Acrobot:
		e, step := CreateAcrobot(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil

	case GridWorld:
		e, step := CreateGridWorld(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil

	case PuckWorld:
		e, step := CreatePuckWorld(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
		return e, step, nil
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	var task env.Task
	switch taskName {
	case Balance:
		task = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	default:
		panic(fmt.Sprintf("createCartpole: Cartpole environment has "+
			"no task %v", taskName))
	}

	return cartpole.NewDiscrete(task, discount)
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	var task env.Task
	switch taskName {
	case SwingUp:
		task = pendulum.NewSwingUp(s, cutoff)

	default:
		panic(fmt.Sprintf("createPendulum: Pendulum environment has "+
			"no task %v", taskName))
	}

	return pendulum.NewDiscrete(task, discount)
}

// CreateMountainCar is a factory for creating the Mountain Car
// environment with default physical parameters and default task
// parameters.
func CreateMountainCar(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	position := r1.Interval{Min: -0.6, Max: -0.4}
	velocity := r1.Interval{Min: 0.0, Max: 0.0}

	s := env.NewUniformStarter([]r1.Interval{position, velocity}, seed)

	var task env.Task
	switch taskName {
	case Goal:
		task = mountaincar.NewGoal(s, cutoff, mountaincar.GoalPosition)

	default:
		panic(fmt.Sprintf("createMountainCar: MountainCar environment "+
			"has no task %v", taskName))
	}

	return mountaincar.NewDiscrete(task, discount)
}

// CreateAcrobot is a factory for creating the Acrobot environment
// with default physical parameters and default task parameters.
func CreateAcrobot(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	bounds := r1.Interval{Min: -0.1, Max: 0.1}

	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	var task env.Task
	switch taskName {
	case SwingUp:
		task = acrobot.NewSwingUp(s, cutoff, acrobot.GoalHeight)

	default:
		panic(fmt.Sprintf("createAcrobot: Acrobot environment has "+
			"no task %v", taskName))
	}

	return acrobot.NewDiscrete(task, discount)
}

// CreateGridWorld is a factory for creating a 5x5 GridWorld
// environment with the agent starting in the bottom left corner and
// a goal in the top right corner.
func CreateGridWorld(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	s, err := gridworld.NewSingleStart(0, 0, gridRows, gridCols)
	if err != nil {
		panic(fmt.Sprintf("createGridWorld: %v", err))
	}

	var task env.Task
	switch taskName {
	case Goal:
		goalX, goalY := []int{gridCols - 1}, []int{gridRows - 1}
		task, err = gridworld.NewGoal(s, goalX, goalY, gridRows, gridCols,
			-0.1, 1.0, cutoff)
		if err != nil {
			panic(fmt.Sprintf("createGridWorld: %v", err))
		}

	default:
		panic(fmt.Sprintf("createGridWorld: GridWorld environment has "+
			"no task %v", taskName))
	}

	return gridworld.New(gridRows, gridCols, task, discount)
}

// CreatePuckWorld is a factory for creating the PuckWorld environment
// with default physical parameters and default task parameters.
func CreatePuckWorld(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	s := env.NewUniformStarter([]r1.Interval{
		{Min: puckworld.PuckRadius, Max: puckworld.WorldW - puckworld.PuckRadius},
		{Min: puckworld.PuckRadius, Max: puckworld.WorldH - puckworld.PuckRadius},
	}, seed)

	var task env.Task
	switch taskName {
	case Gather:
		task = puckworld.NewGather(s, cutoff)

	default:
		panic(fmt.Sprintf("createPuckWorld: PuckWorld environment has "+
			"no task %v", taskName))
	}

	return puckworld.NewDiscrete(task, discount, seed)
}
