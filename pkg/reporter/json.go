package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/runner"
)

// jsonSchemaVersion is bumped when the JSON layout changes incompatibly.
const jsonSchemaVersion = "1.0.0"

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single file's outcome.
type JSONFileResult struct {
	Path        string             `json:"path"`
	Format      config.InputFormat `json:"format,omitempty"`
	Compressed  bool               `json:"compressed,omitempty"`
	Blocks      int                `json:"blocks"`
	BlockNames  []string           `json:"blockNames,omitempty"`
	Rows        map[string]int     `json:"rows,omitempty"`
	Unknown     []string           `json:"unknown,omitempty"`
	Diagnostics []JSONDiagnostic   `json:"diagnostics"`
	Cached      bool               `json:"cached,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// JSONDiagnostic represents a single diagnostic.
type JSONDiagnostic struct {
	Line     int        `json:"line,omitempty"`
	Severity string     `json:"severity"`
	Code     check.Code `json:"code"`
	Message  string     `json:"message"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesChecked    int            `json:"filesChecked"`
	FilesCached     int            `json:"filesCached"`
	FilesErrored    int            `json:"filesErrored"`
	FilesWithIssues int            `json:"filesWithIssues"`
	Blocks          int            `json:"blocks"`
	Rows            int            `json:"rows"`
	RowsByCategory  map[string]int `json:"rowsByCategory"`
	TotalIssues     int            `json:"totalIssues"`
	BySeverity      map[string]int `json:"bySeverity"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.TotalIssues, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: jsonSchemaVersion,
		Files:   make([]JSONFileResult, 0),
		Summary: JSONSummary{
			RowsByCategory: make(map[string]int),
			BySeverity:     make(map[string]int),
		},
	}

	if result == nil {
		return output
	}

	output.Files = make([]JSONFileResult, 0, len(result.Files))
	for _, file := range result.Files {
		output.Files = append(output.Files, r.buildFile(file))
	}

	stats := result.Stats
	output.Summary.FilesChecked = stats.FilesProcessed
	output.Summary.FilesCached = stats.FilesCached
	output.Summary.FilesErrored = stats.FilesErrored
	output.Summary.FilesWithIssues = stats.FilesWithIssues
	output.Summary.Blocks = stats.Blocks
	output.Summary.Rows = stats.Rows
	output.Summary.TotalIssues = stats.DiagnosticsTotal
	for category, n := range stats.RowsByCategory {
		output.Summary.RowsByCategory[category] = n
	}
	for sev, n := range stats.DiagnosticsBySeverity {
		output.Summary.BySeverity[string(sev)] = n
	}

	return output
}

func (r *JSONReporter) buildFile(file runner.FileOutcome) JSONFileResult {
	fileResult := JSONFileResult{
		Path:        displayPath(r.opts.WorkingDir, file.Path),
		Diagnostics: make([]JSONDiagnostic, 0),
	}

	if file.Error != nil {
		fileResult.Error = file.Error.Error()
		return fileResult
	}

	out := file.Outcome
	if out == nil {
		return fileResult
	}

	fileResult.Format = out.Format
	fileResult.Compressed = out.Compressed
	fileResult.Blocks = out.Blocks
	fileResult.BlockNames = out.BlockNames
	fileResult.Rows = out.Rows
	fileResult.Unknown = out.Unknown
	fileResult.Cached = out.Cached
	for _, diag := range out.Diagnostics {
		fileResult.Diagnostics = append(fileResult.Diagnostics, JSONDiagnostic{
			Line:     diag.Line,
			Severity: string(diag.Severity),
			Code:     diag.Code,
			Message:  diag.Message,
		})
	}

	return fileResult
}
