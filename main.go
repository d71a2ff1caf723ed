package main

import (
	"os"

	"github.com/helixlab/helixdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
