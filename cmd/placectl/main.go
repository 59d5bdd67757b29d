// Package main is the entry point for the placectl CLI.
package main

import (
	"os"

	"placectl/internal/cli"
	"placectl/internal/output"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		useColors := os.Getenv("NO_COLOR") == ""
		output.FormatError(err, useColors)
		os.Exit(output.ExitCodeFor(err))
	}
}
