package main

import (
	"os"

	"github.com/meenmo/curvelib/cmd/curvelib/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
