package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gorl/agent/nonlinear/discrete/reinforce"
	"github.com/samuelfneumann/gorl/environment/envconfig"
	"github.com/samuelfneumann/gorl/experiment"
	"github.com/samuelfneumann/gorl/experiment/tracker"
	"github.com/samuelfneumann/gorl/initwfn"
	"github.com/samuelfneumann/gorl/network"
	"github.com/samuelfneumann/gorl/solver"
)

var demoSteps uint

// DemoCommand returns the command which runs a REINFORCE agent on the
// cartpole balancing task
func DemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a REINFORCE agent on the cartpole balancing task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data", "d", "results",
		"Directory in which experiment data is saved")
	cmd.Flags().UintVar(&demoSteps, "steps", 50000,
		"Number of environment steps to run for")

	return cmd
}

func runDemo() error {
	envConf := envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance,
		500, 0.99, false)

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return fmt.Errorf("could not create weight initializer: %v", err)
	}

	policySolver, err := solver.NewDefaultAdam(5e-3, 1)
	if err != nil {
		return fmt.Errorf("could not create policy solver: %v", err)
	}
	vSolver, err := solver.NewDefaultAdam(5e-3, 1)
	if err != nil {
		return fmt.Errorf("could not create critic solver: %v", err)
	}

	agentConf := reinforce.NewCategoricalMLPConfigList(
		[][]int{{64, 64}},
		[][]bool{{true, true}},
		[][]*network.Activation{{network.TanH(), network.TanH()}},
		[][]int{{64, 64}},
		[][]bool{{true, true}},
		[][]*network.Activation{{network.TanH(), network.TanH()}},
		[]*initwfn.InitWFn{init},
		[]*solver.Solver{policySolver},
		[]*solver.Solver{vSolver},
		[]int{25},
		[]int{2500},
		[]float64{0.97},
		[]float64{0.99},
	)

	conf := experiment.Config{
		Type:      experiment.OnlineExp,
		MaxSteps:  demoSteps,
		EnvConf:   envConf,
		AgentConf: agentConf,
	}

	returns := tracker.NewReturn(filepath.Join(dataDir, "returns.bin"))
	exp, err := conf.CreateExp(0, seed, []tracker.Tracker{returns}, nil)
	if err != nil {
		return fmt.Errorf("could not create experiment: %v", err)
	}

	if err := exp.Run(); err != nil {
		return fmt.Errorf("could not run experiment: %v", err)
	}
	if err := exp.Save(); err != nil {
		return err
	}

	episodeReturns := returns.EpisodeReturns()
	if len(episodeReturns) > 0 {
		fmt.Printf("final episode return: %v over %v episodes\n",
			episodeReturns[len(episodeReturns)-1], len(episodeReturns))
	}
	return nil
}
