package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mailCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the local message cache",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var mailCachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop cached message bodies older than the retention window",
	Long: `Drop cached message bodies older than the retention window.

The window defaults to the ttl_days setting of the cache block and can
be overridden with --keep-days. Cached AI summaries are kept.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		if a.cache == nil {
			return fmt.Errorf("caching is disabled or no cache store is open")
		}

		keepDays, _ := cmd.Flags().GetInt("keep-days")
		if !cmd.Flags().Changed("keep-days") {
			keepDays = a.cfg.Cache.TTLDays
		}

		removed, err := a.cache.PruneMessageBodies(ctx, a.accountEmail, keepDays)
		if err != nil {
			return err
		}

		fmt.Printf("Pruned %d cached message bodies older than %d days\n", removed, keepDays)
		return nil
	}),
}

var mailCacheForgetCmd = &cobra.Command{
	Use:   "forget <message-id>",
	Short: "Drop the cached AI summary of a message",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		if a.cache == nil {
			return fmt.Errorf("caching is disabled or no cache store is open")
		}

		if err := a.cache.InvalidateSummary(ctx, a.accountEmail, args[0]); err != nil {
			return err
		}

		fmt.Printf("Dropped cached summary for message %s\n", args[0])
		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailCacheCmd)

	mailCacheCmd.AddCommand(mailCachePruneCmd)
	mailCacheCmd.AddCommand(mailCacheForgetCmd)

	mailCachePruneCmd.Flags().Int("keep-days", 0, "Retention window in days (default: cache.ttl_days)")
}
