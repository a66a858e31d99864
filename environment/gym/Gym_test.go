package gym_test

import (
	"testing"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/environment/gym"
	ts "github.com/samuelfneumann/gorl/timestep"
)

// TestNew requires a Python installation with OpenAI Gym available.
// The test is skipped when no environment can be created.
func TestNew(t *testing.T) {
	envs := []string{
		// Classic Control
		"MountainCar-v0",
		"Pendulum-v0",
		"CartPole-v0",
		"Acrobot-v1",

		// Box2D
		"LunarLander-v2",
	}

	for _, envName := range envs {
		env, step, err := gym.New(envName, 0.99, 123)
		if err != nil {
			t.Skipf("could not create gym environment %v: %v", envName, err)
		} else if (env == nil || step == ts.TimeStep{}) {
			t.Error("new: env or step should not be nil if err is nil")
		}

		// Take a bunch of steps in the environment to ensure it works
		size := env.ActionSpec().LowerBound.Len()
		for i := 0; i < 15; i++ {
			next, done := env.Step(mat.NewVecDense(size, nil))
			if (next == ts.TimeStep{}) {
				t.Errorf("step: timestep %v should be non-nil", i)
			}

			if done {
				if !next.TerminalEnd() {
					t.Error("gym episode ends should be terminal states")
				}
				start := env.Reset()
				if (start == ts.TimeStep{}) {
					t.Error("reset: start timestep should be non-nil")
				}
			}
		}

		step = env.Reset()
		if (step == ts.TimeStep{}) {
			t.Error("reset: start timestep should be non-nil")
		}

		// Check that the spec functions work
		env.ObservationSpec()
		env.ActionSpec()
		env.DiscountSpec()

		env.(*gym.GymEnv).Close()
	}
	gogym.Close()
}
