package main

import (
	"os"

	"github.com/samuelfneumann/gorl/cmd"
)

func main() {
	if err := cmd.GetRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
