// Package cli provides the Cobra command structure for gocif.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root gocif command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "gocif",
		Short: "A streaming reader and checker for mmCIF and BinaryCIF files",
		Long: `gocif reads macromolecular structure files in the mmCIF text format and
the BinaryCIF MessagePack format without loading them into memory.

It checks files against a schema of categories and keywords, reports syntax
errors, truncation and unknown names, prints the rows of a category, and
shows the encoded structure of BinaryCIF files.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(ExitInvalidUsage, err)
	})

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newCacheCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
