// Package main provides the Sequent proof checker CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sequent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
