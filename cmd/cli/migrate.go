package main

import (
	"context"

	"github.com/spf13/cobra"
)

// migrator is implemented by the SQL catalogs.
type migrator interface {
	Migrate(ctx context.Context) error
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog schema for SQL backends",
	Long: `Create the stores, items and prices tables and their indexes for the
configured SQL backend. Safe to run repeatedly. Memory and Redis catalogs
have no schema.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	backend, err := openCatalog(ctx, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	m, ok := backend.(migrator)
	if !ok {
		logger.Info().Str("storage", cfg.Storage.Type).Msg("Nothing to migrate")
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return err
	}

	logger.Info().Str("storage", cfg.Storage.Type).Msg("Schema is up to date")
	return nil
}
