package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, repo, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repo.Migrate(cmd.Context()); err != nil {
			return err
		}

		logger.Info("Schema applied", zap.String("driver", cfg.Database.Driver))
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
