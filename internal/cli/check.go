package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/gocif/internal/logging"
	"github.com/yaklabco/gocif/pkg/cache"
	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/reporter"
	"github.com/yaklabco/gocif/pkg/runner"
)

// stdinPath is the argument that reads a single file from standard input.
const stdinPath = "-"

type checkFlags struct {
	format         string
	input          string
	verbose        bool
	compact        bool
	noCache        bool
	followSymlinks bool
	include        []string
}

func newCheckCommand() *cobra.Command {
	var cfg config.Config
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Read mmCIF and BinaryCIF files and report problems",
		Long:  checkLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, &cfg, flags)
		},
	}

	addCheckFlags(cmd, &cfg, flags)

	return cmd
}

const checkLongDescription = `Read mmCIF and BinaryCIF files with the configured schema and report
syntax errors, truncation, unknown categories and keywords, and row counts.

By default, checks all .cif, .mmcif and .bcif files in the current directory
and subdirectories. Use "-" to read a single file from standard input.

Examples:
  gocif check                       # Check current directory
  gocif check structures/           # Check a directory
  gocif check 1abc.cif 2xyz.bcif    # Check specific files
  gocif check --strict              # Unknown names are errors
  gocif check --format json         # Output as JSON for CI
  gocif check --cache               # Skip files unchanged since the last run
  zcat 1abc.cif.gz | gocif check -  # Check standard input`

func addCheckFlags(cmd *cobra.Command, cfg *config.Config, flags *checkFlags) {
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, table, json")
	cmd.Flags().StringVar(&flags.input, "input", "auto", "input format: auto, mmcif, bcif")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&cfg.Ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "only check files matching these globs")
	cmd.Flags().StringSliceVar(&cfg.Extensions, "ext", nil, "file extensions to pick up in directories")
	cmd.Flags().BoolVar(&cfg.Strict, "strict", false, "treat unknown categories and keywords as errors")
	cmd.Flags().IntVar(&cfg.Reader.ChunkSize, "chunk-size", 0, "bytes requested per read")
	cmd.Flags().IntVar(&cfg.Reader.MaxRetries, "max-retries", 0, "bound on would-block retries (0 = unlimited)")
	cmd.Flags().BoolVar(&cfg.Cache.Enabled, "cache", false, "reuse outcomes of unchanged files")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the outcome cache")
	cmd.Flags().StringVar(&cfg.Cache.Path, "cache-path", "", "cache database path")
	cmd.Flags().BoolVar(&flags.followSymlinks, "follow-symlinks", false, "walk into symlinked directories")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "list every file and a full summary")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact JSON output")
}

func runCheck(cmd *cobra.Command, args []string, cliCfg *config.Config, flags *checkFlags) error {
	logger := logging.Default()

	if cmd.Flags().Changed("format") {
		cliCfg.OutputFormat = config.OutputFormat(flags.format)
	}
	if cmd.Flags().Changed("input") {
		format, err := config.ParseInputFormat(flags.input)
		if err != nil {
			return withExitCode(ExitInvalidUsage, err)
		}
		cliCfg.Format = format
	}

	cfg, workDir, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}
	if flags.noCache {
		cfg.Cache.Enabled = false
	}

	logger.Debug("configuration loaded",
		logging.FieldFormat, cfg.Format,
		logging.FieldJobs, cfg.Jobs,
		logging.FieldStrict, cfg.Strict,
		logging.FieldChunkSize, cfg.Reader.ChunkSize,
		logging.FieldCache, cfg.Cache.Enabled,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []runner.Option{runner.WithLogger(logger)}
	if cfg.Cache.Enabled && !isStdin(args) {
		store, err := openCache(cfg)
		if err != nil {
			logger.Warn("cache disabled", logging.FieldError, err)
		} else {
			defer store.Close()
			opts = append(opts, runner.WithCache(store))
		}
	}
	checkRunner := runner.New(check.New(check.WithLogger(logger)), opts...)

	start := time.Now()
	var result *runner.Result
	if isStdin(args) {
		if interactiveStdin(cmd.InOrStdin()) {
			return withExitCode(ExitInvalidUsage, errors.New("refusing to read from a terminal; pipe a file into standard input"))
		}
		result, err = checkRunner.RunReader(ctx, "<stdin>", cmd.InOrStdin(), cfg.Format, cfg)
	} else {
		runOpts := runner.OptionsFromConfig(cfg, args)
		runOpts.WorkingDir = workDir
		runOpts.IncludeGlobs = flags.include
		runOpts.FollowSymlinks = flags.followSymlinks
		result, err = checkRunner.Run(ctx, runOpts)
	}
	if err != nil {
		return fmt.Errorf("check run failed: %w", err)
	}

	logger.Debug("check finished",
		logging.FieldFilesProcessed, result.Stats.FilesProcessed,
		logging.FieldFilesCached, result.Stats.FilesCached,
		logging.FieldRowsTotal, result.Stats.Rows,
		logging.FieldDuration, time.Since(start),
	)

	format, err := reporter.ParseFormat(string(cfg.OutputFormat))
	if err != nil {
		return withExitCode(ExitInvalidUsage, err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       cfg.Color,
		ShowSummary: true,
		Verbose:     flags.verbose,
		Compact:     flags.compact,
		WorkingDir:  workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		return withExitCode(ExitIOError, fmt.Errorf("report results: %w", err))
	}

	if ExitCodeFromResult(result) != ExitSuccess {
		return ErrIssuesFound
	}
	return nil
}

func isStdin(args []string) bool {
	return len(args) == 1 && args[0] == stdinPath
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	path := cfg.Cache.Path
	if path == "" {
		var err error
		if path, err = cache.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return cache.Open(path, cache.Options{Fingerprint: cache.Fingerprint(cfg)})
}

// interactiveStdin reports whether in is the process's terminal, with
// nothing piped in.
func interactiveStdin(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && f == os.Stdin && term.IsTerminal(int(f.Fd()))
}
