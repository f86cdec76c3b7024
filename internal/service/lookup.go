// Package service provides business logic implementations.
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"palpiteiro/internal/conference"
	"palpiteiro/internal/model"
)

// SavedSetStore is the slice of the repository the services need. Implemented
// by repository.SavedSetRepository.
type SavedSetStore interface {
	Create(ctx context.Context, set *model.SavedSet) (*model.SavedSet, error)
	GetByID(ctx context.Context, id string) (*model.SavedSet, error)
	List(ctx context.Context) ([]model.SavedSet, error)
	Update(ctx context.Context, set model.SavedSet) error
	Delete(ctx context.Context, id string) error
}

// DrawStore caches official draws. Implemented by repository.DrawRepository.
type DrawStore interface {
	Upsert(ctx context.Context, draw *model.DrawResult) error
	Get(ctx context.Context, variantID string, contest int) (*model.DrawResult, error)
	Recent(ctx context.Context, variantID string, limit int) ([]model.DrawResult, error)
}

// ResultsAPI is the external lottery results client. Implemented by
// results.Client.
type ResultsAPI interface {
	Lookup(ctx context.Context, variantID string, contest int) (*model.DrawResult, error)
	Latest(ctx context.Context, variantID string) (*model.DrawResult, error)
}

// CachedLookup resolves draw lookups cache-first. Draws are immutable, so a
// hit never goes to the network; misses are fetched and cached best-effort.
// It satisfies conference.ResultLookup.
type CachedLookup struct {
	draws  DrawStore
	client ResultsAPI
}

// NewCachedLookup creates a cache-first result lookup.
func NewCachedLookup(draws DrawStore, client ResultsAPI) *CachedLookup {
	return &CachedLookup{draws: draws, client: client}
}

var _ conference.ResultLookup = (*CachedLookup)(nil)

// Lookup returns the draw for a contest, consulting the cache before the
// Caixa API.
func (l *CachedLookup) Lookup(ctx context.Context, variantID string, contest int) (*model.DrawResult, error) {
	if draw, err := l.draws.Get(ctx, variantID, contest); err == nil {
		return draw, nil
	}

	draw, err := l.client.Lookup(ctx, variantID, contest)
	if err != nil {
		return nil, err
	}
	if err := l.draws.Upsert(ctx, draw); err != nil {
		// Cache failure is not fatal, the draw can be refetched.
		log.Warn().Err(err).Str("variant", variantID).Int("contest", contest).Msg("Failed to cache fetched draw")
	}
	return draw, nil
}
