package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gocif/pkg/config"
)

func TestConfigClone(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()

		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies schema and slices", func(t *testing.T) {
		t.Parallel()

		original := config.NewConfig()
		original.Ignore = []string{"archive/**"}
		original.OutputFormat = config.FormatJSON

		clone := original.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, original, clone)
		assert.Equal(t, original, clone)

		clone.Schema["_entry"][0] = "changed"
		clone.Ignore[0] = "other/**"
		clone.Extensions = append(clone.Extensions[:0], ".x")

		assert.Equal(t, "id", original.Schema["_entry"][0])
		assert.Equal(t, "archive/**", original.Ignore[0])
		assert.Equal(t, ".cif", original.Extensions[0])
		assert.Equal(t, config.FormatJSON, clone.OutputFormat)
	})
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	original := config.NewConfig()
	original.Ignore = []string{"archive/**"}
	original.Strict = true
	original.Reader.MaxRetries = 5
	original.Reader.RetryDelay = 2 * time.Millisecond
	original.Cache = config.CacheConfig{Enabled: true, Path: "/tmp/gocif.db"}

	data, err := original.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "retry_delay: 2ms")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)

	// CLI-only fields are not serialized.
	parsed.OutputFormat = original.OutputFormat
	parsed.Color = original.Color
	assert.Equal(t, original, parsed)
}

func TestConfigToYAMLWithHeader(t *testing.T) {
	t.Parallel()

	data, err := config.NewConfig().ToYAMLWithHeader("# header")
	require.NoError(t, err)
	assert.Regexp(t, `^# header\n\nformat: auto\n`, string(data))
}

func TestFromYAMLInvalid(t *testing.T) {
	t.Parallel()

	_, err := config.FromYAML([]byte("jobs: [not a number"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestSchemaCategories(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, []string{"_atom_site", "_entity", "_entry", "_struct"}, cfg.SchemaCategories())
}

func TestGenerateTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts config.TemplateOptions
	}{
		{"minimal yaml", config.TemplateOptions{}},
		{"full yaml", config.TemplateOptions{Full: true}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			data, err := config.GenerateTemplate(testCase.opts)
			require.NoError(t, err)
			assert.Contains(t, string(data), "# gocif configuration")

			cfg, err := config.FromYAML(data)
			require.NoError(t, err)
			assert.Equal(t, config.InputAuto, cfg.Format)
			assert.Equal(t, config.DefaultExtensions(), cfg.Extensions)
		})
	}
}

func TestGenerateFullTemplateMatchesDefaults(t *testing.T) {
	t.Parallel()

	data, err := config.GenerateTemplate(config.TemplateOptions{Full: true})
	require.NoError(t, err)

	cfg, err := config.FromYAML(data)
	require.NoError(t, err)

	want := config.NewConfig()
	want.Ignore = []string{}
	cfg.OutputFormat = want.OutputFormat
	cfg.Color = want.Color
	assert.Equal(t, want, cfg)
}

func TestGenerateTemplateJSON(t *testing.T) {
	t.Parallel()

	data, err := config.GenerateTemplate(config.TemplateOptions{Full: true, Format: "json"})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "auto", doc["format"])
	assert.Contains(t, doc, "schema")
	assert.Contains(t, doc, "reader")
}
