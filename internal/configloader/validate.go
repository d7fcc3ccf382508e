package configloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yaklabco/gocif/pkg/config"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "reader.chunk_size").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string

	// Line is the line number in the config file (if known).
	Line int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		if e.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.FilePath, e.Line))
		} else {
			parts = append(parts, e.FilePath)
		}
	}

	if e.Field != "" {
		parts = append(parts, e.Field)
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) addError(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *ValidationResult) addWarning(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// knownOutputFormats lists valid output format values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownOutputFormats = map[config.OutputFormat]bool{
	config.FormatText:  true,
	config.FormatTable: true,
	config.FormatJSON:  true,
}

// knownColorModes lists valid color mode values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownColorModes = map[string]bool{
	"auto":   true,
	"always": true,
	"never":  true,
}

// minChunkSize is the smallest chunk size accepted without a warning.
const minChunkSize = 1 << 10

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	if cfg == nil {
		return &ValidationResult{}
	}

	result := &ValidationResult{}

	if cfg.Format != "" && !cfg.Format.IsValid() {
		result.addError("format", cfg.Format,
			"invalid format %q; must be one of: auto, mmcif, bcif", cfg.Format)
	}

	if cfg.OutputFormat != "" && !knownOutputFormats[cfg.OutputFormat] {
		result.addError("output_format", cfg.OutputFormat,
			"invalid output format %q; must be one of: text, table, json", cfg.OutputFormat)
	}

	if cfg.Color != "" && !knownColorModes[cfg.Color] {
		result.addError("color", cfg.Color,
			"invalid color mode %q; must be one of: auto, always, never", cfg.Color)
	}

	if cfg.Jobs < 0 {
		result.addError("jobs", cfg.Jobs, "jobs must be >= 0 (0 means auto)")
	}

	validateReader(cfg.Reader, result)
	validateExtensions(cfg, result)
	validateIgnorePatterns(cfg, result)
	validateSchema(cfg, result)

	return result
}

// validateReader checks the byte source settings.
func validateReader(rc config.ReaderConfig, result *ValidationResult) {
	switch {
	case rc.ChunkSize <= 0:
		result.addError("reader.chunk_size", rc.ChunkSize, "chunk_size must be > 0")
	case rc.ChunkSize < minChunkSize:
		result.addWarning("reader.chunk_size", rc.ChunkSize,
			"chunk_size %d is very small; reads will be slow", rc.ChunkSize)
	}

	if rc.RetryDelay < 0 {
		result.addError("reader.retry_delay", rc.RetryDelay, "retry_delay must be >= 0")
	}

	if rc.MaxRetries < 0 {
		result.addError("reader.max_retries", rc.MaxRetries, "max_retries must be >= 0 (0 means unlimited)")
	}
}

// validateExtensions checks that every extension carries its leading dot.
func validateExtensions(cfg *config.Config, result *ValidationResult) {
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			result.addError(fmt.Sprintf("extensions[%d]", i), ext,
				"invalid extension %q; must start with '.'", ext)
		}
	}
}

// validateIgnorePatterns checks that ignore patterns are valid globs.
func validateIgnorePatterns(cfg *config.Config, result *ValidationResult) {
	for i, pattern := range cfg.Ignore {
		// filepath.Match returns an error only for malformed patterns
		_, err := filepath.Match(pattern, "")
		if err != nil {
			result.addError(fmt.Sprintf("ignore[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}
}

// validateSchema checks registered category and keyword names.
func validateSchema(cfg *config.Config, result *ValidationResult) {
	for _, category := range cfg.SchemaCategories() {
		field := "schema." + category
		if !strings.HasPrefix(category, "_") || len(category) < 2 {
			result.addError(field, category,
				"invalid category %q; category names start with '_'", category)
			continue
		}

		keywords := cfg.Schema[category]
		if len(keywords) == 0 {
			result.addWarning(field, category,
				"category %q registers no keywords; it will never be delivered", category)
		}

		for i, keyword := range keywords {
			if keyword == "" || strings.ContainsAny(keyword, ". \t") {
				result.addError(fmt.Sprintf("%s[%d]", field, i), keyword,
					"invalid keyword %q; keywords are non-empty and contain no '.' or blanks", keyword)
			}
		}
	}
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)

	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}

	return result
}

// IsValidOutputFormat returns true if the output format is valid.
func IsValidOutputFormat(f config.OutputFormat) bool {
	return knownOutputFormats[f]
}

// IsValidColorMode returns true if the color mode is valid.
func IsValidColorMode(mode string) bool {
	return knownColorModes[mode]
}
