package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/gocif/internal/ui/pretty"
	"github.com/yaklabco/gocif/pkg/runner"
)

// TextReporter formats results as styled terminal output, grouped by file.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
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

	total := 0
	for _, file := range result.Files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		total += r.reportFile(file)
	}

	if r.opts.ShowSummary {
		if r.opts.Verbose {
			fmt.Fprint(r.bw, r.styles.FormatSummary(result.Stats))
		} else {
			fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
		}
	}

	return total, nil
}

// reportFile writes one file's section and returns its diagnostic count.
// Clean files are listed only in verbose mode.
func (r *TextReporter) reportFile(file runner.FileOutcome) int {
	path := displayPath(r.opts.WorkingDir, file.Path)

	if file.Error != nil {
		fmt.Fprintf(r.bw, "%s: %s\n\n",
			r.styles.FilePath.Render(path),
			r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)),
		)
		return 0
	}

	out := file.Outcome
	if out == nil {
		return 0
	}
	if len(out.Diagnostics) == 0 && !r.opts.Verbose {
		return 0
	}

	fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, out))
	for i := range out.Diagnostics {
		fmt.Fprint(r.bw, r.styles.FormatDiagnostic(&out.Diagnostics[i], path))
	}
	if r.opts.Verbose {
		fmt.Fprint(r.bw, r.styles.FormatUnknown(out.Unknown))
	}
	fmt.Fprintln(r.bw)

	return len(out.Diagnostics)
}
