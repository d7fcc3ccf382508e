package check

import (
	"maps"
	"slices"

	"github.com/yaklabco/gocif/pkg/config"
)

// Outcome is the result of checking one file.
type Outcome struct {
	// Path is the file that was checked, or the name given to Check.
	Path string `json:"path" msgpack:"path"`

	// Format is the format the file was read as (mmcif or bcif).
	Format config.InputFormat `json:"format" msgpack:"format"`

	// Compressed is set when the file was gzip-compressed.
	Compressed bool `json:"compressed,omitempty" msgpack:"compressed,omitempty"`

	// Blocks is the number of data blocks read.
	Blocks int `json:"blocks" msgpack:"blocks"`

	// BlockNames lists the data block names in file order.
	BlockNames []string `json:"block_names,omitempty" msgpack:"block_names,omitempty"`

	// Rows counts delivered rows per schema category.
	Rows map[string]int `json:"rows,omitempty" msgpack:"rows,omitempty"`

	// Unknown lists categories and "category.keyword" names found in the
	// file but absent from the schema, sorted.
	Unknown []string `json:"unknown,omitempty" msgpack:"unknown,omitempty"`

	// Diagnostics are the problems found, in line order.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`

	// Cached is set when the outcome was served from the cache.
	Cached bool `json:"cached,omitempty" msgpack:"-"`
}

// TotalRows sums Rows over every category.
func (o *Outcome) TotalRows() int {
	total := 0
	for _, n := range o.Rows {
		total += n
	}
	return total
}

// Categories returns the categories with delivered rows, sorted.
func (o *Outcome) Categories() []string {
	return slices.Sorted(maps.Keys(o.Rows))
}

// Count returns the number of diagnostics with the given severity.
func (o *Outcome) Count(sev config.Severity) int {
	n := 0
	for _, d := range o.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic is an error.
func (o *Outcome) HasErrors() bool {
	return o.Count(config.SeverityError) > 0
}

func (o *Outcome) add(line int, sev config.Severity, code Code, msg string) {
	o.Diagnostics = append(o.Diagnostics, Diagnostic{
		Path:     o.Path,
		Line:     line,
		Severity: sev,
		Code:     code,
		Message:  msg,
	})
}
