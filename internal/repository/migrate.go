package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate creates the schema. Statements are idempotent so repeated startups
// are safe; the same routine backs the integration tests.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "users table",
			sql: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(255) UNIQUE NOT NULL,
					balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
					total_spent BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			name: "items table",
			sql: `
				CREATE TABLE IF NOT EXISTS items (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(120) UNIQUE NOT NULL,
					value BIGINT NOT NULL DEFAULT 0,
					rarity VARCHAR(32) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_items_rarity ON items(rarity);
			`,
		},
		{
			name: "inventory_items table",
			sql: `
				CREATE TABLE IF NOT EXISTS inventory_items (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					item_id BIGINT NOT NULL REFERENCES items(id),
					quantity BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, item_id)
				);
			`,
		},
		{
			name: "draw_records table",
			sql: `
				CREATE TABLE IF NOT EXISTS draw_records (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					case_id BIGINT NOT NULL,
					case_name VARCHAR(120) NOT NULL,
					case_version BIGINT NOT NULL,
					item_id BIGINT NOT NULL REFERENCES items(id),
					sampled BIGINT NOT NULL,
					total_weight BIGINT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_draw_records_user_time
					ON draw_records(user_id, created_at DESC);
			`,
		},
	}

	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return err
		}
		log.Debug().Str("migration", m.name).Msg("Migration applied")
	}
	return nil
}
