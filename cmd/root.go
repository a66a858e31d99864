// Package cmd implements the command line interface for running
// experiments and plotting their results
package cmd

import (
	"github.com/spf13/cobra"
)

var seed uint64

// GetRootCommand returns the root command line argument parser with
// all subcommands registered
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "gorl",
		Short: "Run reinforcement learning experiments",
	}
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 42,
		"Seed for the experiment's random number generators")

	rootCommand.AddCommand(RunCommand())
	rootCommand.AddCommand(PlotCommand())
	rootCommand.AddCommand(DemoCommand())
	rootCommand.AddCommand(CollectCommand())

	return rootCommand
}
