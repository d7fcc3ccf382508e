package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/pkg/cache"
	"github.com/yaklabco/gocif/pkg/config"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the check outcome cache",
		Long: `Inspect and maintain the cache used by 'gocif check --cache'.

The cache lives under the user cache directory unless cache.path is set in
the configuration.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the cache location and entry count",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheStats(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop entries for files that no longer exist",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCachePrune(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cache database",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd)
		},
	})

	return cmd
}

func cacheConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := loadConfig(cmd, &config.Config{})
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		path, err := cache.DefaultPath()
		if err != nil {
			return nil, withExitCode(ExitIOError, err)
		}
		cfg.Cache.Path = path
	}
	return cfg, nil
}

func runCacheStats(cmd *cobra.Command) error {
	cfg, err := cacheConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openCache(cfg)
	if err != nil {
		return withExitCode(ExitIOError, err)
	}
	defer store.Close()

	n, err := store.Len()
	if err != nil {
		return withExitCode(ExitIOError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", cfg.Cache.Path, n)
	return nil
}

func runCachePrune(cmd *cobra.Command) error {
	cfg, err := cacheConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openCache(cfg)
	if err != nil {
		return withExitCode(ExitIOError, err)
	}
	defer store.Close()

	n, err := store.Prune()
	if err != nil {
		return withExitCode(ExitIOError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
	return nil
}

func runCacheClear(cmd *cobra.Command) error {
	cfg, err := cacheConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.Remove(cfg.Cache.Path); err != nil && !os.IsNotExist(err) {
		return withExitCode(ExitIOError, fmt.Errorf("remove cache: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cfg.Cache.Path)
	return nil
}
