package reporter

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gocif/pkg/config"
)

// Format selects how check results are written.
type Format string

// Output formats supported by the reporter. They mirror the values accepted
// for output_format in the configuration.
const (
	FormatText  = Format(config.FormatText)
	FormatTable = Format(config.FormatTable)
	FormatJSON  = Format(config.FormatJSON)
)

// Formats lists the supported formats in the order they are documented.
func Formats() []Format {
	return []Format{FormatText, FormatTable, FormatJSON}
}

// ParseFormat parses a format name case-insensitively. The empty string
// selects text.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatText, nil
	}
	format := Format(strings.ToLower(name))
	if !format.IsValid() {
		names := make([]string, 0, len(Formats()))
		for _, f := range Formats() {
			names = append(names, string(f))
		}
		return "", fmt.Errorf("unknown format %q; valid formats: %s", name, strings.Join(names, ", "))
	}
	return format, nil
}

func (f Format) String() string {
	return string(f)
}

// IsValid reports whether f is a supported format.
func (f Format) IsValid() bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}
