package configloader

import "github.com/yaklabco/gocif/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Slices and the schema: override replaces base entirely if non-nil
//   - Nil/unset values in override do not override values in base
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}
	if override.OutputFormat != "" {
		result.OutputFormat = override.OutputFormat
	}
	if override.Color != "" {
		result.Color = override.Color
	}

	// Booleans can only be switched on by a higher layer, since false is
	// indistinguishable from unset.
	if override.Strict {
		result.Strict = true
	}
	if override.Cache.Enabled {
		result.Cache.Enabled = true
	}
	if override.Cache.Path != "" {
		result.Cache.Path = override.Cache.Path
	}

	if override.Reader.ChunkSize != 0 {
		result.Reader.ChunkSize = override.Reader.ChunkSize
	}
	if override.Reader.RetryDelay != 0 {
		result.Reader.RetryDelay = override.Reader.RetryDelay
	}
	if override.Reader.MaxRetries != 0 {
		result.Reader.MaxRetries = override.Reader.MaxRetries
	}

	if override.Extensions != nil {
		result.Extensions = override.Extensions
	}
	if override.Ignore != nil {
		result.Ignore = override.Ignore
	}
	if override.Schema != nil {
		result.Schema = override.Schema
	}

	return &result
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
