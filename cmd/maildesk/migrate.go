package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loywise/maildesk/internal/config"
	"github.com/loywise/maildesk/internal/database"
	"github.com/loywise/maildesk/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
