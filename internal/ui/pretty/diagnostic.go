package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
)

// FormatDiagnostic formats a single diagnostic for terminal output.
// The path is omitted when it matches the file header the caller printed.
func (s *Styles) FormatDiagnostic(diag *check.Diagnostic, path string) string {
	location := s.FilePath.Render(path)
	if diag.Line > 0 {
		location += s.Location.Render(fmt.Sprintf(":%d", diag.Line))
	}

	return fmt.Sprintf("  %s  %s  %s  %s\n",
		location,
		s.FormatSeverity(diag.Severity),
		s.Message.Render(diag.Message),
		s.Code.Render("("+string(diag.Code)+")"),
	)
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev config.Severity) string {
	switch sev {
	case config.SeverityError:
		return s.Error.Render("error")
	case config.SeverityWarning:
		return s.Warning.Render("warning")
	case config.SeverityInfo:
		return s.Info.Render("info")
	default:
		return string(sev)
	}
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, outcome *check.Outcome) string {
	header := s.FilePath.Render(path)
	if outcome == nil {
		return header
	}

	details := []string{string(outcome.Format)}
	if outcome.Compressed {
		details = append(details, "gzip")
	}
	details = append(details, plural(outcome.Blocks, "block", "blocks"))
	if n := len(outcome.Diagnostics); n > 0 {
		details = append(details, plural(n, "issue", "issues"))
	}
	if outcome.Cached {
		details = append(details, "cached")
	}
	return header + s.Dim.Render(" ("+strings.Join(details, ", ")+")")
}

// FormatUnknown formats the schema-unknown names found in a file.
func (s *Styles) FormatUnknown(names []string) string {
	if len(names) == 0 {
		return ""
	}
	styled := make([]string, len(names))
	for i, name := range names {
		if category, keyword, ok := strings.Cut(name, "."); ok {
			styled[i] = s.Category.Render(category) + "." + s.Keyword.Render(keyword)
		} else {
			styled[i] = s.Category.Render(name)
		}
	}
	return "  " + s.Dim.Render("unknown:") + " " + strings.Join(styled, ", ") + "\n"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
