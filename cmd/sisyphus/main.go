package main

import (
	"fmt"
	"os"

	"github.com/wesleyorama2/sisyphus/internal/cli"
)

// Main is the entry point for the application. It's exported to make it
// testable, mirroring the teacher's lunge entrypoint.
func Main() int {
	if err := cli.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
