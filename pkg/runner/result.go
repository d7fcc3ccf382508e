package runner

import (
	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
)

// FileOutcome is the result for one discovered file.
type FileOutcome struct {
	// Path is the file path that was processed.
	Path string

	// Outcome is nil when Error is set.
	Outcome *check.Outcome

	// Error is set if the file could not be read at all.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	// FilesDiscovered is the total number of files found during discovery.
	FilesDiscovered int

	// FilesProcessed is the number of files with an outcome.
	FilesProcessed int

	// FilesCached is the number of outcomes served from the cache.
	FilesCached int

	// FilesErrored is the number of files that could not be read.
	FilesErrored int

	// FilesWithIssues is the number of files with at least one diagnostic.
	FilesWithIssues int

	// Blocks is the number of data blocks read across all files.
	Blocks int

	// Rows is the number of delivered rows across all files.
	Rows int

	// RowsByCategory splits Rows by schema category.
	RowsByCategory map[string]int

	// DiagnosticsTotal is the total number of diagnostics across all files.
	DiagnosticsTotal int

	// DiagnosticsBySeverity maps severity levels to counts.
	DiagnosticsBySeverity map[config.Severity]int
}

// Result is the overall runner result.
type Result struct {
	// Files are ordered by path.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats
}

// HasFailures reports whether any file errored or has an error diagnostic.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.FilesErrored > 0 || r.Stats.DiagnosticsBySeverity[config.SeverityError] > 0
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

func newStats() Stats {
	return Stats{
		RowsByCategory:        make(map[string]int),
		DiagnosticsBySeverity: make(map[config.Severity]int),
	}
}

// accumulate appends outcome and folds it into the stats.
func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	out := outcome.Outcome
	if out == nil {
		return
	}

	r.Stats.FilesProcessed++
	if out.Cached {
		r.Stats.FilesCached++
	}

	r.Stats.Blocks += out.Blocks
	for category, n := range out.Rows {
		r.Stats.Rows += n
		r.Stats.RowsByCategory[category] += n
	}

	if len(out.Diagnostics) > 0 {
		r.Stats.FilesWithIssues++
	}
	r.Stats.DiagnosticsTotal += len(out.Diagnostics)
	for _, diag := range out.Diagnostics {
		r.Stats.DiagnosticsBySeverity[diag.Severity]++
	}
}
