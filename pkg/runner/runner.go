package runner

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gocif/internal/logging"
	"github.com/yaklabco/gocif/pkg/cache"
	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

// Runner checks discovered files with a pool of workers.
type Runner struct {
	checker *check.Checker
	cache   *cache.Cache
	logger  *log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache serves unchanged files from c and stores fresh outcomes in it.
func WithCache(c *cache.Cache) Option {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithLogger sets the logger for per-file debug output and cache warnings.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner around checker.
func New(checker *check.Checker, opts ...Option) *Runner {
	r := &Runner{checker: checker, logger: logging.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run discovers files under opts.Paths and checks them concurrently.
// Files are reported in path order regardless of completion order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)
	r.logger.Debug("discovered files", logging.FieldFilesDiscovered, len(files))

	if len(files) == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(files))

	cfg := opts.effectiveConfig()

	// Each worker writes only its own slots.
	outcomes := make([]FileOutcome, len(files))
	filled := make([]bool, len(files))
	work := make(chan int)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				outcomes[i] = r.processFile(ctx, files[i], cfg)
				filled[i] = true
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	for i, outcome := range outcomes {
		if filled[i] {
			result.accumulate(outcome)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}

	return result, nil
}

// RunReader checks a single stream such as standard input, reporting it
// under name. The cache is not consulted.
func (r *Runner) RunReader(
	ctx context.Context,
	name string,
	rd io.Reader,
	format config.InputFormat,
	cfg *config.Config,
) (*Result, error) {
	result := &Result{Stats: newStats()}
	result.Stats.FilesDiscovered = 1

	out, err := r.checker.Check(ctx, rd, name, format, cfg)
	result.accumulate(FileOutcome{Path: name, Outcome: out, Error: err})

	if cerr := ctx.Err(); cerr != nil {
		return result, fmt.Errorf("run cancelled: %w", cerr)
	}
	return result, nil
}

// processFile checks one file, consulting the cache first when configured.
func (r *Runner) processFile(ctx context.Context, path string, cfg *config.Config) FileOutcome {
	logger := r.logger.With(logging.FieldPath, path)

	if r.cache == nil {
		out, err := r.checker.CheckFile(ctx, path, cfg)
		return FileOutcome{Path: path, Outcome: out, Error: err}
	}

	info, err := fsutil.StatHash(ctx, path)
	if err != nil {
		return FileOutcome{Path: path, Error: err}
	}

	cached, ok, err := r.cache.Get(path, info)
	switch {
	case err != nil:
		logger.Warn("cache lookup failed", logging.FieldError, err)
	case ok:
		logger.Debug("cache hit")
		return FileOutcome{Path: path, Outcome: cached}
	}

	out, err := r.checker.CheckFile(ctx, path, cfg)
	if err != nil {
		return FileOutcome{Path: path, Error: err}
	}

	// Only store the outcome if the file did not change while it was read.
	if changed, cerr := fsutil.CheckModifiedQuick(ctx, info); cerr == nil && !changed {
		if perr := r.cache.Put(path, info, out); perr != nil {
			logger.Warn("cache store failed", logging.FieldError, perr)
		}
	}

	return FileOutcome{Path: path, Outcome: out}
}
