package deepq

import (
	"testing"

	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

func newTestConfig(t *testing.T) Config {
	t.Helper()

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}
	sol, err := solver.NewDefaultAdam(1e-3, 32)
	if err != nil {
		t.Fatal(err)
	}

	return Config{
		PolicyLayers:         []int{32, 32},
		Biases:               []bool{true, true},
		Activations:          []*network.Activation{network.ReLU(), network.ReLU()},
		Solver:               sol,
		InitWFn:              init,
		Epsilon:              0.1,
		BatchSize:            32,
		MinReplayCapacity:    100,
		MaxReplayCapacity:    10000,
		NStep:                1,
		Gamma:                0.99,
		Tau:                  1.0,
		TargetUpdateInterval: 100,
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := newTestConfig(t)
	if err := c.Validate(); err != nil {
		t.Errorf("well-formed configuration rejected: %v", err)
	}
}

func TestValidateRejectsIllFormedConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mismatched biases", func(c *Config) {
			c.Biases = []bool{true}
		}},
		{"mismatched activations", func(c *Config) {
			c.Activations = []*network.Activation{network.ReLU()}
		}},
		{"non-positive batch size", func(c *Config) {
			c.BatchSize = 0
		}},
		{"replay capacity bounds inverted", func(c *Config) {
			c.MinReplayCapacity = 100
			c.MaxReplayCapacity = 10
		}},
		{"non-positive update target steps", func(c *Config) {
			c.NStep = 0
		}},
		{"non-positive target update interval", func(c *Config) {
			c.TargetUpdateInterval = 0
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := newTestConfig(t)
			test.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected ill-formed configuration to be rejected")
			}
		})
	}
}
