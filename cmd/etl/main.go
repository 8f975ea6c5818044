// Command etl is the binary a scheduler invokes in place of the engine's
// external cron: one process, one tenant, one named job entry point from
// spec.md §6.6.
package main

import (
	"fmt"
	"os"

	"tenantetl/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
