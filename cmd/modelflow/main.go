// Command modelflow is the CLI entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/modelflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
