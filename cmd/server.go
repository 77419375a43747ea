package cmd

import (
	"github.com/spf13/cobra"

	"moodmusic/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Connects to MySQL and Redis, migrates the schema and serves the /api routes until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
