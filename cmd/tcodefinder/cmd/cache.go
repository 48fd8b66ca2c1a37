package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/tcodefinder/internal/output"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cmd.AddCommand(newCacheFlushCmd())
	return cmd
}

func newCacheFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Flush all cached responses, expansions, and vote sums",
		Long: `Flush every cache namespace in both tiers.

The in-process tier belongs to this invocation; the interesting effect is on
the shared tier (redis_url in the config), where stale ranked responses from
all instances are dropped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := buildCache(cfg, rootLogger)
			counts := store.FlushAll(cmd.Context())

			out := output.New(cmd.OutOrStdout())
			out.Success("Cache flushed")
			out.Table([][2]string{
				{"memory entries", strconv.Itoa(counts.Memory)},
				{"shared entries", strconv.Itoa(counts.Shared)},
			})
			if cfg.Cache.RedisURL == "" {
				out.Status("", "No shared tier configured; only this process was affected.")
			}
			return nil
		},
	}
}
