// Command mergebot runs the configuration harvesting pipeline.
package main

import (
	"os"

	"github.com/mergehub/mergebot/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
