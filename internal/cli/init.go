package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/internal/logging"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	full   bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new gocif configuration file",
		Long: `Create a new .gocif.yml configuration file in the current directory
with sensible defaults. The file can be customized to change the schema of
categories and keywords, the reader tuning, and the cache.

Examples:
  gocif init                      Create minimal .gocif.yml
  gocif init --full               Create full config with the default schema
  gocif init --format json        Create .gocif.json instead
  gocif init --output custom.yml  Write to a custom file path`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runInit(ctx, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().BoolVar(&flags.full, "full", false, "Generate full template with every option documented")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path (default: .gocif.yml or .gocif.json)")

	return cmd
}

func runInit(ctx context.Context, flags *initFlags) error {
	logger := logging.NewInteractive()

	if flags.format != "yaml" && flags.format != "json" {
		return withExitCode(ExitInvalidUsage, fmt.Errorf("invalid format %q: must be yaml or json", flags.format))
	}

	outputPath := flags.output
	if outputPath == "" {
		if flags.format == "json" {
			outputPath = ".gocif.json"
		} else {
			outputPath = ".gocif.yml"
		}
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{
		Full:   flags.full,
		Format: flags.format,
	})
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	if flags.force {
		err = fsutil.WriteAtomic(ctx, absPath, content, fsutil.DefaultFileMode)
	} else {
		err = fsutil.CreateAtomic(ctx, absPath, content, fsutil.DefaultFileMode)
	}
	switch {
	case errors.Is(err, fsutil.ErrExists):
		return withExitCode(ExitIOError, fmt.Errorf("file %q already exists; use --force to overwrite", outputPath))
	case err != nil:
		return withExitCode(ExitIOError, fmt.Errorf("write file: %w", err))
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	if flags.full {
		logger.Info("full template includes the default schema")
	}
	logger.Info("run 'gocif check' to read files with this configuration")

	return nil
}
