package cmd

import (
	"github.com/spf13/cobra"

	"moodmusic/db"
	"moodmusic/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Connect(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(gdb); err != nil {
			return err
		}
		logger.Info("Migration finished", logger.String("database", cfg.DB.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
