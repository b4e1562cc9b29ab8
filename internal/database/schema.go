package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the Postgres DDL for the catalog tables. Statements are
// idempotent so Migrate can run on every start.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT ''
	)`,
	// No foreign keys: records outlive deleted stores and items
	`CREATE TABLE IF NOT EXISTS prices (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		price BIGINT NOT NULL CHECK (price >= 0),
		user_id TEXT NOT NULL DEFAULT '',
		on_sale BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prices_item ON prices (item_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_prices_store ON prices (store_id, created_at)`,
}

// Migrate applies Schema on the given pool.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
