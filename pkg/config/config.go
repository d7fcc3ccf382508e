// Package config defines core configuration types for gocif.
// These types are pure data structures with no dependency on the config loader.
package config

import "time"

// Severity represents the severity level of a check diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// InputFormat selects how input files are decoded.
type InputFormat string

const (
	// InputAuto picks the format from the file extension, then its first byte.
	InputAuto  InputFormat = "auto"
	InputMMCIF InputFormat = "mmcif"
	InputBCIF  InputFormat = "bcif"
)

// OutputFormat specifies the output format for results.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

// Reader defaults.
const (
	DefaultChunkSize  = 4 << 20
	DefaultRetryDelay = 100 * time.Microsecond
)

// ReaderConfig tunes the byte source used for every file.
type ReaderConfig struct {
	// ChunkSize is the number of bytes requested per read.
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`

	// RetryDelay is the pause before retrying a read that would block.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// MaxRetries bounds consecutive would-block retries (0 = unlimited).
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// CacheConfig controls the check-result cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"` // empty = user cache dir
}

// Config is the root configuration structure for gocif.
type Config struct {
	// Format is the input format ("auto", "mmcif" or "bcif").
	Format InputFormat `mapstructure:"format" yaml:"format"`

	// Extensions lists the file extensions picked up when walking directories.
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`

	// Ignore contains glob patterns for files to ignore.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`

	// Jobs specifies the number of parallel workers (0 = number of CPUs).
	Jobs int `mapstructure:"jobs" yaml:"jobs"`

	// Strict turns unknown categories and keywords into errors.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	// Reader tunes file reading.
	Reader ReaderConfig `mapstructure:"reader" yaml:"reader"`

	// Schema maps category names to the keywords the checker registers.
	Schema map[string][]string `mapstructure:"schema" yaml:"schema"`

	// Cache configures the check-result cache.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// CLI-level options (not persisted to config files).

	// OutputFormat specifies the output format.
	OutputFormat OutputFormat `mapstructure:"-" yaml:"-"`

	// Color is the color mode: "auto", "always" or "never".
	Color string `mapstructure:"-" yaml:"-"`
}

// DefaultExtensions returns the extensions discovered by default.
func DefaultExtensions() []string {
	return []string{".cif", ".mmcif", ".bcif", ".cif.gz", ".mmcif.gz", ".bcif.gz"}
}

// DefaultSchema returns the categories registered when none are configured:
// the entry and the coordinate-bearing core of a PDBx/mmCIF file.
func DefaultSchema() map[string][]string {
	return map[string][]string{
		"_entry":  {"id"},
		"_struct": {"entry_id", "title"},
		"_entity": {"id", "type", "pdbx_description"},
		"_atom_site": {
			"group_PDB", "id", "type_symbol", "label_atom_id", "label_alt_id",
			"label_comp_id", "label_asym_id", "label_entity_id", "label_seq_id",
			"Cartn_x", "Cartn_y", "Cartn_z", "occupancy", "B_iso_or_equiv",
			"pdbx_PDB_model_num",
		},
	}
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Format:     InputAuto,
		Extensions: DefaultExtensions(),
		Ignore:     nil,
		Jobs:       0, // 0 means use runtime.NumCPU
		Reader: ReaderConfig{
			ChunkSize:  DefaultChunkSize,
			RetryDelay: DefaultRetryDelay,
		},
		Schema:       DefaultSchema(),
		OutputFormat: FormatText,
		Color:        "auto",
	}
}
