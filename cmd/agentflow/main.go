// Command agentflow serves the workflow editor API and works with exported
// workflow documents from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
