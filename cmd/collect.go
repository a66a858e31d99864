package cmd

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gorl/collector"
	env "github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/experiment"
	"github.com/samuelfneumann/gorl/replay"
)

var (
	collectSteps int
	collectEnvs  int
	bufferFile   string
)

// CollectCommand returns the command which gathers transitions from
// copies of an environment and saves them for offline use
func CollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Gather transitions with an agent and save them to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.json",
		"Path to the JSON experiment configuration file")
	cmd.Flags().IntVarP(&hyperIndex, "index", "i", 0,
		"Index of the hyperparameter setting to use")
	cmd.Flags().IntVar(&collectEnvs, "envs", 1,
		"Number of environment copies to step in parallel")
	cmd.Flags().IntVar(&collectSteps, "steps", 10000,
		"Number of steps to run each environment copy for")
	cmd.Flags().StringVarP(&bufferFile, "out", "o", "buffer.bin",
		"File in which the collected transitions are saved")

	return cmd
}

// runCollect drives the configured agent's policy through copies of
// the configured environment, storing every transition in a replay
// buffer which is then gob-encoded to disk
func runCollect() error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("could not read configuration file: %v", err)
	}

	var conf experiment.Config
	if err := json.Unmarshal(data, &conf); err != nil {
		return fmt.Errorf("could not parse configuration file: %v", err)
	}

	envs := make([]env.Environment, collectEnvs)
	for i := range envs {
		envs[i], _, err = conf.EnvConf.Create(seed + uint64(i))
		if err != nil {
			return fmt.Errorf("could not create environment: %v", err)
		}
	}

	a, err := conf.AgentConf.At(hyperIndex).CreateAgent(envs[0], seed)
	if err != nil {
		return fmt.Errorf("could not create agent: %v", err)
	}

	features := envs[0].ObservationSpec().Shape.Len()
	actionDims := envs[0].ActionSpec().Shape.Len()
	buffer, err := replay.NewVectorBuffer(collectEnvs, features,
		actionDims, collectSteps, seed)
	if err != nil {
		return fmt.Errorf("could not create buffer: %v", err)
	}

	c, err := collector.New(a, envs, buffer)
	if err != nil {
		return fmt.Errorf("could not create collector: %v", err)
	}

	stats, err := c.Collect(collectSteps)
	if err != nil {
		return fmt.Errorf("could not collect transitions: %v", err)
	}

	f, err := os.Create(bufferFile)
	if err != nil {
		return fmt.Errorf("could not create buffer file: %v", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(buffer); err != nil {
		return fmt.Errorf("could not save buffer: %v", err)
	}

	fmt.Printf("collected %v transitions over %v episodes "+
		"(mean return %v)\n", stats.Steps, stats.Episodes,
		stats.MeanReturn)
	return nil
}
