// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reason-search/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the provider response cache",
	Long: `Cache works on the SQLite database named by cache.path. An in-memory
cache (the default) lives only inside a single command and cannot be
inspected.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live and expired entries per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheFile()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(context.Background())
		if err != nil {
			return err
		}
		return writeYAML(os.Stdout, st)
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheFile()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired entries\n", n)
		return nil
	},
}

func openCacheFile() (*cache.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		return nil, fmt.Errorf("cache.path is not set; the cache is in memory")
	}
	return cache.Open(cfg.Cache)
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	rootCmd.AddCommand(cacheCmd)
}
