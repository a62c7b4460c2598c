// Command gc-sampler runs the allocation-pressure sampler and writes
// gc_test_results.csv.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/gcpressure/internal/cli"
)

func main() {
	if err := cli.Run(append([]string{"sample"}, os.Args[1:]...)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
