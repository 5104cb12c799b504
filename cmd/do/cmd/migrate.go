package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtpultz/goal-digger/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, driver, err := openDB()
				if err != nil {
					return err
				}
				defer database.Close()
				return db.RunMigrations(database.DB, driver)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, driver, err := openDB()
				if err != nil {
					return err
				}
				defer database.Close()
				return db.MigrateDown(database.DB, driver)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current migration version",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, driver, err := openDB()
				if err != nil {
					return err
				}
				defer database.Close()

				version, err := db.MigrationVersion(database.DB, driver)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "driver: %s\nversion: %d\n", driver, version)
				return nil
			},
		},
	)

	return cmd
}
