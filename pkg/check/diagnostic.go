package check

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yaklabco/gocif/pkg/config"
)

// Code identifies the kind of problem a Diagnostic reports.
type Code string

const (
	// CodeSyntax is malformed input for the file's format.
	CodeSyntax Code = "syntax"

	// CodeTruncated is input that ends inside a value or structure.
	CodeTruncated Code = "truncated"

	// CodeNoData is a file with no data block.
	CodeNoData Code = "no-data"

	// CodeUnknownCategory is a category missing from the schema (strict mode).
	CodeUnknownCategory Code = "unknown-category"

	// CodeUnknownKeyword is a keyword missing from the schema (strict mode).
	CodeUnknownKeyword Code = "unknown-keyword"
)

// Diagnostic is a single finding for a file.
type Diagnostic struct {
	// Path is the file the diagnostic belongs to.
	Path string `json:"path" msgpack:"path"`

	// Line is the 1-based line for mmCIF input, or 0 when unknown.
	Line int `json:"line,omitempty" msgpack:"line,omitempty"`

	Severity config.Severity `json:"severity" msgpack:"severity"`
	Code     Code            `json:"code" msgpack:"code"`
	Message  string          `json:"message" msgpack:"message"`
}

// String renders "path:line: severity: message (code)".
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Path)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
	}
	fmt.Fprintf(&b, ": %s: %s (%s)", d.Severity, d.Message, d.Code)
	return b.String()
}

// SortDiagnostics orders diagnostics by path, line and code.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return strings.Compare(string(a.Code), string(b.Code))
	})
}
