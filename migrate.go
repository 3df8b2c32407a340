package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"medibill-ai/internal/db"
	"medibill-ai/internal/exitcode"
	"medibill-ai/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer conn.Close()

	if err := db.ApplyMigrations(ctx, conn, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.MigrationError)
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
