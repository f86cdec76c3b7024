package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate creates the schema. Statements are idempotent so the service can
// run them on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// Migration 1: saved sets
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS saved_sets (
			id UUID PRIMARY KEY,
			variant_id VARCHAR(50) NOT NULL,
			kind VARCHAR(20) NOT NULL,
			combinations JSONB NOT NULL,
			target_contest INT NOT NULL,
			conference JSONB,
			progress JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_saved_sets_created ON saved_sets(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_saved_sets_variant ON saved_sets(variant_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: saved_sets table ready")

	// Migration 2: cached official draws
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS draws (
			variant_id VARCHAR(50) NOT NULL,
			contest INT NOT NULL,
			numbers JSONB NOT NULL,
			draw_date DATE,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (variant_id, contest)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: draws table ready")

	return nil
}
