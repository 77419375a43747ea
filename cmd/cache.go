package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"moodmusic/cache"
)

var flushCache bool

var cacheCmd = &cobra.Command{
	Use:     "cache",
	Aliases: []string{"redis"},
	Short:   "Check the Redis search cache",
	Long:    `Connects to Redis and runs a set/get/delete round trip. With --flush, also deletes every cached catalog search.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Redis: %s, DB: %d\n", cfg.Redis.Addr(), cfg.Redis.DB)
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := cache.Check(ctx, client); err != nil {
			return err
		}
		fmt.Fprintln(out, "Redis round trip OK")

		if flushCache {
			n, err := cache.NewSearchCache(client, cfg.YouTube.CacheTTL).Flush(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d cached searches\n", n)
		}
		return nil
	},
}

func init() {
	cacheCmd.Flags().BoolVar(&flushCache, "flush", false, "delete all cached catalog searches")
	rootCmd.AddCommand(cacheCmd)
}
