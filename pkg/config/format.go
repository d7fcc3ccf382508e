package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IsValid reports whether f is a known input format.
func (f InputFormat) IsValid() bool {
	switch f {
	case InputAuto, InputMMCIF, InputBCIF:
		return true
	default:
		return false
	}
}

// ParseInputFormat parses an input format name, case-insensitively.
func ParseInputFormat(s string) (InputFormat, error) {
	f := InputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return InputAuto, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("unknown input format %q (valid: auto, mmcif, bcif)", s)
	}
	return f, nil
}

// FormatForPath resolves InputAuto using the file extension alone, looking
// through a trailing ".gz". It returns InputAuto when the extension says
// nothing.
func FormatForPath(f InputFormat, path string) InputFormat {
	if f != InputAuto && f != "" {
		return f
	}
	name := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(strings.TrimSuffix(name, ".gz")) {
	case ".bcif":
		return InputBCIF
	case ".cif", ".mmcif":
		return InputMMCIF
	default:
		return InputAuto
	}
}
