package pretty

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/runner"
)

const summaryDividerWidth = 40

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "3 issues (2 errors, 1 warning) in 2 files, 412 rows from 5 files".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	rows := s.Dim.Render(fmt.Sprintf("%s from %s",
		plural(stats.Rows, "row", "rows"),
		plural(stats.FilesProcessed, "file", "files")))
	if stats.FilesCached > 0 {
		rows += s.Dim.Render(fmt.Sprintf(", %d cached", stats.FilesCached))
	}

	var parts []string
	if stats.DiagnosticsTotal == 0 {
		parts = append(parts, s.Success.Render("No issues found"))
	} else {
		main := plural(stats.DiagnosticsTotal, "issue", "issues")
		if breakdown := s.severityBreakdown(stats.DiagnosticsBySeverity); breakdown != "" {
			main += " (" + breakdown + ")"
		}
		parts = append(parts, main+" in "+plural(stats.FilesWithIssues, "file", "files"))
	}

	if stats.FilesErrored > 0 {
		parts = append(parts, s.Failure.Render(plural(stats.FilesErrored, "unreadable file", "unreadable files")))
	}

	return strings.Join(parts, ", ") + ", " + rows + "\n"
}

// severityBreakdown renders "2 errors, 1 warning" with severity colors.
func (s *Styles) severityBreakdown(bySeverity map[config.Severity]int) string {
	var parts []string
	if n := bySeverity[config.SeverityError]; n > 0 {
		parts = append(parts, s.Error.Render(plural(n, "error", "errors")))
	}
	if n := bySeverity[config.SeverityWarning]; n > 0 {
		parts = append(parts, s.Warning.Render(plural(n, "warning", "warnings")))
	}
	if n := bySeverity[config.SeverityInfo]; n > 0 {
		parts = append(parts, s.Info.Render(fmt.Sprintf("%d info", n)))
	}
	return strings.Join(parts, ", ")
}

// FormatSummary formats run statistics as a summary block, including
// the per-category row counts.
func (s *Styles) FormatSummary(stats runner.Stats) string {
	var builder strings.Builder

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	builder.WriteString("  Files checked:     " +
		s.SummaryValue.Render(strconv.Itoa(stats.FilesProcessed)) + "\n")
	if stats.FilesCached > 0 {
		builder.WriteString("  From cache:        " +
			s.SummaryValue.Render(strconv.Itoa(stats.FilesCached)) + "\n")
	}
	if stats.FilesErrored > 0 {
		builder.WriteString("  Unreadable:        " +
			s.Failure.Render(strconv.Itoa(stats.FilesErrored)) + "\n")
	}
	if stats.FilesWithIssues > 0 {
		builder.WriteString("  Files with issues: " +
			s.Failure.Render(strconv.Itoa(stats.FilesWithIssues)) + "\n")
	}
	builder.WriteString("  Data blocks:       " +
		s.SummaryValue.Render(strconv.Itoa(stats.Blocks)) + "\n")

	builder.WriteString("\n")
	builder.WriteString(s.FormatCategoryRows(stats.RowsByCategory))

	builder.WriteString("\n")
	builder.WriteString("  Total issues:      " +
		s.SummaryValue.Render(strconv.Itoa(stats.DiagnosticsTotal)) + "\n")
	if n := stats.DiagnosticsBySeverity[config.SeverityError]; n > 0 {
		builder.WriteString("    Errors:          " + s.Error.Render(strconv.Itoa(n)) + "\n")
	}
	if n := stats.DiagnosticsBySeverity[config.SeverityWarning]; n > 0 {
		builder.WriteString("    Warnings:        " + s.Warning.Render(strconv.Itoa(n)) + "\n")
	}
	if n := stats.DiagnosticsBySeverity[config.SeverityInfo]; n > 0 {
		builder.WriteString("    Info:            " + s.Info.Render(strconv.Itoa(n)) + "\n")
	}

	builder.WriteString("\n")
	switch {
	case stats.FilesErrored > 0 || stats.DiagnosticsBySeverity[config.SeverityError] > 0:
		builder.WriteString(s.Failure.Render("Check failed"))
	case stats.DiagnosticsBySeverity[config.SeverityWarning] > 0:
		builder.WriteString(s.Warning.Render("Check completed with warnings"))
	default:
		builder.WriteString(s.Success.Render("Check passed"))
	}
	builder.WriteString("\n")

	return builder.String()
}

// FormatCategoryRows lists row counts per category, sorted by name.
func (s *Styles) FormatCategoryRows(rows map[string]int) string {
	if len(rows) == 0 {
		return "  Rows:              " + s.SummaryValue.Render("0") + "\n"
	}

	total := 0
	width := 0
	for name, n := range rows {
		total += n
		width = max(width, len(name))
	}

	var builder strings.Builder
	builder.WriteString("  Rows:              " + s.SummaryValue.Render(strconv.Itoa(total)) + "\n")
	for _, name := range slices.Sorted(maps.Keys(rows)) {
		pad := strings.Repeat(" ", width-len(name))
		builder.WriteString("    " + s.Category.Render(name) + pad + "  " +
			s.Count.Render(strconv.Itoa(rows[name])) + "\n")
	}
	return builder.String()
}
