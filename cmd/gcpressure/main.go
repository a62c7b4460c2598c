// Command gcpressure runs GC latency and allocation-pressure harnesses.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/gcpressure/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
