package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sariola/notion2prompt/internal/cache"
	"github.com/sariola/notion2prompt/internal/ui"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheStatsCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			disk, err := cache.New("", cache.DefaultTTL)
			if err != nil {
				return err
			}
			if err := disk.Clear(); err != nil {
				return err
			}
			ui.FromContext(cmd.Context()).Success("Cache cleared (%s)", cache.Dir())
			return nil
		},
	}
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			disk, err := cache.New("", cache.DefaultTTL)
			if err != nil {
				return err
			}
			count, bytes := disk.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "directory: %s\nentries: %d\nsize: %.1f KiB\n",
				cache.Dir(), count, float64(bytes)/1024)
			return nil
		},
	}
}
