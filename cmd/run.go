package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gorl/experiment"
	"github.com/samuelfneumann/gorl/experiment/tracker"

	// Register agent configuration types for deserialization
	_ "github.com/samuelfneumann/gorl/agent/linear/discrete/esarsa"
	_ "github.com/samuelfneumann/gorl/agent/linear/discrete/qlearning"
	_ "github.com/samuelfneumann/gorl/agent/nonlinear/discrete/deepq"
	_ "github.com/samuelfneumann/gorl/agent/nonlinear/discrete/reinforce"
)

var (
	configFile string
	dataDir    string
	hyperIndex int
)

// RunCommand returns the command which runs the experiment described
// by a JSON configuration file
func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment described by a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.json",
		"Path to the JSON experiment configuration file")
	cmd.Flags().StringVarP(&dataDir, "data", "d", "results",
		"Directory in which experiment data is saved")
	cmd.Flags().IntVarP(&hyperIndex, "index", "i", 0,
		"Index of the hyperparameter setting to run")

	return cmd
}

func runExperiment() error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("could not read configuration file: %v", err)
	}

	var conf experiment.Config
	if err := json.Unmarshal(data, &conf); err != nil {
		return fmt.Errorf("could not parse configuration file: %v", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("could not create data directory: %v", err)
	}

	trackers := []tracker.Tracker{
		tracker.NewReturn(filepath.Join(dataDir, "returns.bin")),
		tracker.NewEpisodeLength(filepath.Join(dataDir, "lengths.bin")),
	}

	exp, err := conf.CreateExp(hyperIndex, seed, trackers, nil)
	if err != nil {
		return fmt.Errorf("could not create experiment: %v", err)
	}

	if err := exp.Run(); err != nil {
		return fmt.Errorf("could not run experiment: %v", err)
	}
	return exp.Save()
}
