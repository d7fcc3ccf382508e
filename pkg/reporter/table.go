package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/gocif/internal/ui/pretty"
	"github.com/yaklabco/gocif/pkg/runner"
)

// TableReporter formats results as a table with one row per file.
type TableReporter struct {
	opts      Options
	styles    *pretty.Styles
	formatter *pretty.TableFormatter
	bw        *bufio.Writer
}

// NewTableReporter creates a new table reporter.
func NewTableReporter(opts Options) *TableReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	styles := pretty.NewStyles(colorEnabled)

	return &TableReporter{
		opts:      opts,
		styles:    styles,
		formatter: pretty.NewTableFormatter(styles, pretty.TerminalWidth(opts.Writer)),
		bw:        bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TableReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No files to check."))
		}
		return 0, nil
	}

	display := func(path string) string {
		return displayPath(r.opts.WorkingDir, path)
	}
	fmt.Fprint(r.bw, r.formatter.FormatTable(result, display))
	r.writeIssues(result, display)

	if r.opts.ShowSummary {
		if r.opts.Verbose {
			fmt.Fprint(r.bw, r.styles.FormatSummary(result.Stats))
		} else {
			fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
		}
	}

	return result.Stats.DiagnosticsTotal, nil
}

// writeIssues lists the diagnostics and read errors behind the table's
// status column, in table order.
func (r *TableReporter) writeIssues(result *runner.Result, display func(string) string) {
	wrote := false
	for _, file := range result.Files {
		path := display(file.Path)
		switch {
		case file.Error != nil:
			fmt.Fprintf(r.bw, "  %s  %s\n", r.styles.FilePath.Render(path),
				r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)))
			wrote = true
		case file.Outcome != nil:
			for i := range file.Outcome.Diagnostics {
				fmt.Fprint(r.bw, r.styles.FormatDiagnostic(&file.Outcome.Diagnostics[i], path))
				wrote = true
			}
		}
	}
	if wrote {
		fmt.Fprintln(r.bw)
	}
}
