// Package main is the entry point for the gocif CLI.
package main

import (
	"errors"
	"os"

	"github.com/yaklabco/gocif/internal/cli"
	"github.com/yaklabco/gocif/internal/logging"
)

// Build-time variables set by GoReleaser via ldflags.
//
//nolint:gochecknoglobals // Version variables must be package-level for ldflags injection
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	info := cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	rootCmd := cli.NewRootCommand(info)

	err := rootCmd.Execute()
	// ErrIssuesFound only selects the exit code; the report already says why.
	if err != nil && !errors.Is(err, cli.ErrIssuesFound) {
		logger := logging.Default()
		logger.Error("command failed", logging.FieldError, err)
	}

	return cli.ExitCode(err)
}
