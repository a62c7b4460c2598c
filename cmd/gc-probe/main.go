// Command gc-probe runs the dual-priority latency probe.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/gcpressure/internal/cli"
)

func main() {
	if err := cli.Run(append([]string{"probe"}, os.Args[1:]...)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
