package cli

import (
	"errors"

	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/fsutil"
	"github.com/yaklabco/gocif/pkg/runner"
)

// Exit codes for gocif.
const (
	// ExitSuccess indicates successful execution with no failures.
	ExitSuccess = 0

	// ExitIssues indicates a check found errors or unreadable files.
	ExitIssues = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrIssuesFound is returned when a check reports failures. The details
// have already been written by the reporter.
var ErrIssuesFound = errors.New("issues found")

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var coded *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrIssuesFound):
		return ExitIssues
	case errors.As(err, &coded):
		return coded.code
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		cif.IsIO(err):
		return ExitIOError
	case cif.IsFileFormat(err):
		return ExitIssues
	default:
		return ExitInternalError
	}
}

// ExitCodeFromResult determines the exit code for a finished check run.
func ExitCodeFromResult(result *runner.Result) int {
	if result.HasFailures() {
		return ExitIssues
	}
	return ExitSuccess
}
