package main

import (
	"database/sql"

	"procurement/db/migrations"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema",
}

func migrateAction(run func(db *sql.DB, log zerolog.Logger) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		conn, err := openPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		return run(conn.DB, log)
	}
}

func init() {
	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: migrateAction(migrations.Up)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: migrateAction(migrations.Down)},
		&cobra.Command{Use: "status", Short: "Print migration status", RunE: migrateAction(migrations.Status)},
	)
	rootCmd.AddCommand(migrateCmd)
}
