package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"palpiteiro/internal/model"
)

// ErrDrawNotFound is returned when a contest has no cached result.
var ErrDrawNotFound = errors.New("draw not found")

// DrawRepository caches official draw results. Draws are immutable history,
// so a cached contest never needs refetching from the Caixa API.
type DrawRepository struct {
	pool *pgxpool.Pool
}

// NewDrawRepository creates a new DrawRepository instance.
func NewDrawRepository(pool *pgxpool.Pool) *DrawRepository {
	return &DrawRepository{pool: pool}
}

// Upsert stores a fetched draw. Re-inserting an already cached contest is a
// no-op rather than an error.
func (r *DrawRepository) Upsert(ctx context.Context, draw *model.DrawResult) error {
	const query = `
		INSERT INTO draws (variant_id, contest, numbers, draw_date, fetched_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (variant_id, contest) DO NOTHING
	`

	numbers, err := json.Marshal(draw.Numbers)
	if err != nil {
		return fmt.Errorf("failed to marshal drawn numbers: %w", err)
	}

	var drawDate *time.Time
	if !draw.DrawDate.IsZero() {
		drawDate = &draw.DrawDate
	}

	if _, err := r.pool.Exec(ctx, query, draw.VariantID, draw.Contest, numbers, drawDate); err != nil {
		return fmt.Errorf("failed to upsert draw: %w", err)
	}
	return nil
}

// Get retrieves one cached draw. Returns ErrDrawNotFound on a cache miss.
func (r *DrawRepository) Get(ctx context.Context, variantID string, contest int) (*model.DrawResult, error) {
	const query = `
		SELECT variant_id, contest, numbers, draw_date
		FROM draws
		WHERE variant_id = $1 AND contest = $2
	`

	draw, err := scanDraw(r.pool.QueryRow(ctx, query, variantID, contest))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDrawNotFound
		}
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	return draw, nil
}

// Recent returns up to limit cached draws for a variant, newest contest first.
func (r *DrawRepository) Recent(ctx context.Context, variantID string, limit int) ([]model.DrawResult, error) {
	const query = `
		SELECT variant_id, contest, numbers, draw_date
		FROM draws
		WHERE variant_id = $1
		ORDER BY contest DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, variantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent draws: %w", err)
	}
	defer rows.Close()

	var draws []model.DrawResult
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, *draw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draws: %w", err)
	}
	return draws, nil
}

func scanDraw(row pgx.Row) (*model.DrawResult, error) {
	var (
		draw     model.DrawResult
		numbers  []byte
		drawDate *time.Time
	)
	if err := row.Scan(&draw.VariantID, &draw.Contest, &numbers, &drawDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(numbers, &draw.Numbers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal drawn numbers: %w", err)
	}
	if drawDate != nil {
		draw.DrawDate = *drawDate
	}
	return &draw, nil
}
