package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/runner"
)

// Table formatting constants.
const (
	cachedSymbol     = "*"
	tablePadding     = 2
	tableColumnCount = 5 // FILE, FORMAT, BLOCKS, ROWS, STATUS
	minFileWidth     = 20
	minFormatWidth   = 6
	minNumberWidth   = 6
	minStatusWidth   = 10
	heavySeparator   = "="
	lightSeparator   = "-"
)

// TableRow is a single file row in the outcome table.
type TableRow struct {
	File     string
	Format   string
	Blocks   string
	Rows     string
	Status   string
	Severity config.Severity
	Cached   bool
}

// TableFormatter formats run outcomes as a styled table, one row per file.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{
		styles:    styles,
		termWidth: termWidth,
	}
}

type columnWidths struct {
	file   int
	format int
	blocks int
	rows   int
	status int
}

// FormatTable formats runner results as a styled table.
func (t *TableFormatter) FormatTable(result *runner.Result, displayPath func(string) string) string {
	if result == nil || len(result.Files) == 0 {
		return ""
	}

	rows := make([]TableRow, 0, len(result.Files))
	for _, file := range result.Files {
		rows = append(rows, FileToTableRow(file, displayPath))
	}

	widths := t.calculateColumnWidths(rows)

	var builder strings.Builder
	builder.WriteString(t.formatHeader(widths))
	builder.WriteString("\n")
	builder.WriteString(t.formatSeparator(widths, heavySeparator))
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(t.formatRow(row, widths))
		builder.WriteString("\n")
	}
	builder.WriteString(t.formatSeparator(widths, lightSeparator))
	builder.WriteString("\n")
	builder.WriteString(t.styles.TableLegend.Render(
		fmt.Sprintf(" %s = served from cache", cachedSymbol)))
	builder.WriteString("\n")

	return builder.String()
}

// FileToTableRow converts one file outcome to a table row.
func FileToTableRow(file runner.FileOutcome, displayPath func(string) string) TableRow {
	path := file.Path
	if displayPath != nil {
		path = displayPath(path)
	}

	row := TableRow{File: path, Format: "-", Blocks: "-", Rows: "-"}
	if file.Error != nil {
		row.Status = "unreadable"
		row.Severity = config.SeverityError
		return row
	}

	out := file.Outcome
	if out == nil {
		return row
	}

	row.Format = string(out.Format)
	row.Blocks = strconv.Itoa(out.Blocks)
	row.Rows = strconv.Itoa(out.TotalRows())
	row.Cached = out.Cached

	errs := out.Count(config.SeverityError)
	warns := out.Count(config.SeverityWarning)
	switch {
	case errs > 0:
		row.Status = plural(errs, "error", "errors")
		row.Severity = config.SeverityError
	case warns > 0:
		row.Status = plural(warns, "warning", "warnings")
		row.Severity = config.SeverityWarning
	default:
		row.Status = "ok"
	}
	return row
}

// calculateColumnWidths sizes each column to its content, shrinking the
// file column to fit the terminal.
func (t *TableFormatter) calculateColumnWidths(rows []TableRow) columnWidths {
	widths := columnWidths{
		file:   minFileWidth,
		format: minFormatWidth,
		blocks: minNumberWidth,
		rows:   minNumberWidth,
		status: minStatusWidth,
	}

	for _, row := range rows {
		widths.file = max(widths.file, len(row.File))
		widths.format = max(widths.format, len(row.Format))
		widths.blocks = max(widths.blocks, len(row.Blocks))
		widths.rows = max(widths.rows, len(row.Rows))
		widths.status = max(widths.status, len(row.Status))
	}

	if total := totalWidth(widths); total > t.termWidth {
		widths.file = max(minFileWidth, widths.file-(total-t.termWidth))
	}

	return widths
}

func totalWidth(widths columnWidths) int {
	return widths.file + widths.format + widths.blocks + widths.rows + widths.status +
		tablePadding*tableColumnCount + len(cachedSymbol)
}

func (t *TableFormatter) formatHeader(widths columnWidths) string {
	header := fmt.Sprintf(" %-*s  %-*s  %*s  %*s  %-*s  ",
		widths.file, "FILE",
		widths.format, "FORMAT",
		widths.blocks, "BLOCKS",
		widths.rows, "ROWS",
		widths.status, "STATUS",
	)
	return t.styles.TableHeader.Render(header)
}

func (t *TableFormatter) formatSeparator(widths columnWidths, char string) string {
	return t.styles.TableSeparator.Render(strings.Repeat(char, totalWidth(widths)))
}

// formatRow formats a single row with severity-based styling.
func (t *TableFormatter) formatRow(row TableRow, widths columnWidths) string {
	cached := " "
	if row.Cached {
		cached = t.styles.TableCached.Render(cachedSymbol)
	}

	content := fmt.Sprintf(" %-*s  %-*s  %*s  %*s  %-*s",
		widths.file, truncateFilePath(row.File, widths.file),
		widths.format, row.Format,
		widths.blocks, row.Blocks,
		widths.rows, row.Rows,
		widths.status, row.Status,
	)

	return t.rowStyle(row.Severity).Render(content) + " " + cached
}

func (t *TableFormatter) rowStyle(severity config.Severity) lipgloss.Style {
	switch severity {
	case config.SeverityError:
		return t.styles.TableErrorRow
	case config.SeverityWarning:
		return t.styles.TableWarnRow
	default:
		return lipgloss.NewStyle()
	}
}

// truncateFilePath truncates a file path, preserving the end (filename) rather than beginning.
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-maxLen+3:]
}
