// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"palpiteiro/internal/model"
)

// Common errors for repository operations.
var (
	ErrSavedSetNotFound = errors.New("saved set not found")
)

// SavedSetRepository handles saved set persistence. Combinations, the
// conference record and teimosinha progress are stored as JSONB documents;
// the set's metadata stays in plain columns for filtering.
type SavedSetRepository struct {
	pool *pgxpool.Pool
}

// NewSavedSetRepository creates a new SavedSetRepository instance.
func NewSavedSetRepository(pool *pgxpool.Pool) *SavedSetRepository {
	return &SavedSetRepository{pool: pool}
}

const savedSetColumns = `id, variant_id, kind, combinations, target_contest, conference, progress, created_at, updated_at`

// Create persists a new saved set and returns it with the stored timestamps.
func (r *SavedSetRepository) Create(ctx context.Context, set *model.SavedSet) (*model.SavedSet, error) {
	const query = `
		INSERT INTO saved_sets (id, variant_id, kind, combinations, target_contest, conference, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + savedSetColumns

	combinations, conference, progress, err := marshalSetDocuments(set)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query,
		set.ID, set.VariantID, string(set.Kind), combinations, set.TargetContest, conference, progress)
	stored, err := scanSavedSet(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create saved set: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a saved set. Returns ErrSavedSetNotFound if it does not exist.
func (r *SavedSetRepository) GetByID(ctx context.Context, id string) (*model.SavedSet, error) {
	const query = `SELECT ` + savedSetColumns + ` FROM saved_sets WHERE id = $1`

	set, err := scanSavedSet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSavedSetNotFound
		}
		return nil, fmt.Errorf("failed to get saved set: %w", err)
	}
	return set, nil
}

// List returns all saved sets, newest first.
func (r *SavedSetRepository) List(ctx context.Context) ([]model.SavedSet, error) {
	const query = `SELECT ` + savedSetColumns + ` FROM saved_sets ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved sets: %w", err)
	}
	defer rows.Close()

	var sets []model.SavedSet
	for rows.Next() {
		set, err := scanSavedSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved set: %w", err)
		}
		sets = append(sets, *set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved sets: %w", err)
	}
	return sets, nil
}

// Update stores the conference state of an existing set. Only the mutable
// documents are written; identity, kind and combinations never change after
// save. Returns ErrSavedSetNotFound when the set was deleted in the meantime,
// which callers treat as a no-op.
func (r *SavedSetRepository) Update(ctx context.Context, set model.SavedSet) error {
	const query = `
		UPDATE saved_sets
		SET conference = $2, progress = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, conference, progress, err := marshalSetDocuments(&set)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query, set.ID, conference, progress)
	if err != nil {
		return fmt.Errorf("failed to update saved set: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSavedSetNotFound
	}
	return nil
}

// Delete removes a saved set. Returns ErrSavedSetNotFound if it was already gone.
func (r *SavedSetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM saved_sets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved set: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSavedSetNotFound
	}
	return nil
}

// marshalSetDocuments encodes the JSONB columns. Nil conference/progress
// become SQL NULLs.
func marshalSetDocuments(set *model.SavedSet) (combinations, conference, progress []byte, err error) {
	combinations, err = json.Marshal(set.Combinations)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal combinations: %w", err)
	}
	if set.Conference != nil {
		conference, err = json.Marshal(set.Conference)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal conference record: %w", err)
		}
	}
	if set.Progress != nil {
		progress, err = json.Marshal(set.Progress)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal teimosinha progress: %w", err)
		}
	}
	return combinations, conference, progress, nil
}

// scanSavedSet reads one row into a SavedSet, decoding the JSONB documents.
func scanSavedSet(row pgx.Row) (*model.SavedSet, error) {
	var (
		set          model.SavedSet
		kind         string
		combinations []byte
		conference   []byte
		progress     []byte
	)
	err := row.Scan(
		&set.ID,
		&set.VariantID,
		&kind,
		&combinations,
		&set.TargetContest,
		&conference,
		&progress,
		&set.CreatedAt,
		&set.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	set.Kind = model.SetKind(kind)

	if err := json.Unmarshal(combinations, &set.Combinations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal combinations: %w", err)
	}
	if len(conference) > 0 {
		set.Conference = &model.ConferenceRecord{}
		if err := json.Unmarshal(conference, set.Conference); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conference record: %w", err)
		}
	}
	if len(progress) > 0 {
		set.Progress = &model.TeimosinhaProgress{}
		if err := json.Unmarshal(progress, set.Progress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal teimosinha progress: %w", err)
		}
	}
	return &set, nil
}
