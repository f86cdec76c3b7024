package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"palpiteiro/internal/conference"
	"palpiteiro/internal/generator"
	"palpiteiro/internal/model"
)

// SuggestionService produces combination suggestions and exposes draw
// results to the API surface.
type SuggestionService struct {
	gen           generator.Generator
	client        ResultsAPI
	draws         DrawStore
	lookup        conference.ResultLookup
	historyWindow int
	maxCount      int
}

// NewSuggestionService creates a suggestion service. historyWindow bounds
// how many past draws feed the generator, maxCount caps a single request.
func NewSuggestionService(gen generator.Generator, client ResultsAPI, draws DrawStore, lookup conference.ResultLookup, historyWindow, maxCount int) *SuggestionService {
	return &SuggestionService{
		gen:           gen,
		client:        client,
		draws:         draws,
		lookup:        lookup,
		historyWindow: historyWindow,
		maxCount:      maxCount,
	}
}

// Suggest generates count combinations for a variant, seeded with recent
// draw history. count is clamped to [1, maxCount].
func (s *SuggestionService) Suggest(ctx context.Context, variantID string, count int) ([]model.Combination, error) {
	variant, ok := model.VariantByID(variantID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variantID)
	}

	if count < 1 {
		count = 1
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	history := s.history(ctx, variant)
	return s.gen.Generate(ctx, variant, history, count)
}

// history assembles up to historyWindow recent draws, newest first. The
// latest contest anchors a walk back through the cache-first lookup; if the
// Caixa API is unreachable the local cache is used as-is.
func (s *SuggestionService) history(ctx context.Context, variant model.Variant) []model.DrawResult {
	latest, err := s.client.Latest(ctx, variant.ID)
	if err != nil {
		log.Warn().Err(err).Str("variant", variant.ID).Msg("Latest draw unavailable, using cached history")
		cached, err := s.draws.Recent(ctx, variant.ID, s.historyWindow)
		if err != nil {
			log.Warn().Err(err).Str("variant", variant.ID).Msg("Failed to read cached draws")
			return nil
		}
		return cached
	}
	if err := s.draws.Upsert(ctx, latest); err != nil {
		log.Warn().Err(err).Str("variant", variant.ID).Int("contest", latest.Contest).Msg("Failed to cache latest draw")
	}

	history := []model.DrawResult{*latest}
	for contest := latest.Contest - 1; contest > 0 && len(history) < s.historyWindow; contest-- {
		draw, err := s.lookup.Lookup(ctx, variant.ID, contest)
		if err != nil {
			break
		}
		history = append(history, *draw)
	}
	return history
}

// LatestResult returns the most recent official draw for a variant.
func (s *SuggestionService) LatestResult(ctx context.Context, variantID string) (*model.DrawResult, error) {
	if _, ok := model.VariantByID(variantID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variantID)
	}
	draw, err := s.client.Latest(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if err := s.draws.Upsert(ctx, draw); err != nil {
		log.Warn().Err(err).Str("variant", variantID).Int("contest", draw.Contest).Msg("Failed to cache latest draw")
	}
	return draw, nil
}

// Result returns the official draw for a specific contest.
func (s *SuggestionService) Result(ctx context.Context, variantID string, contest int) (*model.DrawResult, error) {
	if _, ok := model.VariantByID(variantID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variantID)
	}
	return s.lookup.Lookup(ctx, variantID, contest)
}
