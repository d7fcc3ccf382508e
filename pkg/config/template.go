package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full includes every option with its documentation and the default
	// schema. If false, generates a minimal template.
	Full bool

	// Format is the output format: "yaml" or "json".
	Format string
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	if opts.Full {
		content, err = generateFullTemplate()
	} else {
		content = generateMinimalTemplate()
	}
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(opts.Format, "json") {
		return templateToJSON(content)
	}
	return content, nil
}

// generateMinimalTemplate creates a minimal commented template.
func generateMinimalTemplate() []byte {
	var buf bytes.Buffer

	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString(`

# Input format: auto, mmcif or bcif
format: auto

# Extensions picked up when checking directories
extensions:
  - .cif
  - .mmcif
  - .bcif

# Treat unknown categories and keywords as errors
strict: false

# Number of parallel workers (0 = auto)
# jobs: 0

# File patterns to ignore (glob patterns)
# ignore:
#   - "archive/**"

# Categories and keywords to read (defaults to entry, struct, entity, atom_site)
# schema:
#   _entry: [id]
#   _atom_site: [id, type_symbol, Cartn_x, Cartn_y, Cartn_z]
`)

	return buf.Bytes()
}

// generateFullTemplate documents every option, using the defaults as values.
func generateFullTemplate() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString(`

# Input format: auto, mmcif or bcif. "auto" uses the file extension and
# falls back to sniffing the first byte.
format: auto

# Extensions picked up when checking directories.
extensions:
  - .cif
  - .mmcif
  - .bcif

# File patterns to ignore (glob patterns, ** matches any depth).
ignore: []

# Number of parallel workers (0 = number of CPUs).
jobs: 0

# Treat unknown categories and keywords as errors instead of recording them.
strict: false

# Low-level reading.
reader:
  # Bytes requested from the input per read.
  chunk_size: 4194304
  # Pause before retrying a read that would block (pipes, sockets).
  retry_delay: 100us
  # Give up after this many consecutive would-block reads (0 = never).
  max_retries: 0

# Cache of check results, keyed by path and content hash.
cache:
  enabled: false
  # Empty means $XDG_CACHE_HOME/gocif/cache.db.
  path: ""

# Categories and keywords registered by the checker.
`)

	schema, err := schemaYAML(DefaultSchema())
	if err != nil {
		return nil, err
	}
	buf.Write(schema)

	return buf.Bytes(), nil
}

func schemaYAML(schema map[string][]string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent())
	if err := encoder.Encode(map[string]any{"schema": schema}); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// templateToJSON converts a YAML template to JSON. Comments are dropped.
func templateToJSON(yamlContent []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(yamlContent, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(jsonBytes, '\n'), nil
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# gocif configuration
# See: https://github.com/yaklabco/gocif`
}
