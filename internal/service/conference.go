package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"palpiteiro/internal/conference"
	"palpiteiro/internal/model"
	"palpiteiro/internal/pkg/lock"
	"palpiteiro/internal/repository"
	"palpiteiro/internal/results"
)

// Common errors for conference service operations.
var (
	ErrUnknownVariant  = errors.New("unknown lottery variant")
	ErrInvalidSavedSet = errors.New("invalid saved set")
)

// ConferenceService owns the read-modify-write cycle around the pure
// engine: load a set, apply an engine operation on the value, persist the
// returned copy. A per-set lock serializes cycles on the same set; unrelated
// sets proceed concurrently.
type ConferenceService struct {
	sets   SavedSetStore
	lookup conference.ResultLookup
	locks  *lock.SetLock
}

// NewConferenceService creates a new ConferenceService instance.
func NewConferenceService(sets SavedSetStore, lookup conference.ResultLookup) *ConferenceService {
	return &ConferenceService{
		sets:   sets,
		lookup: lookup,
		locks:  lock.NewSetLock(),
	}
}

// SaveSetParams carries a save request. Kind is fixed at save time.
type SaveSetParams struct {
	VariantID     string
	Kind          model.SetKind
	Combinations  []model.Combination
	TargetContest int
	ContestCount  int // teimosinha only: how many consecutive contests
}

// SaveSet validates and persists a new set in the pending state.
func (s *ConferenceService) SaveSet(ctx context.Context, p SaveSetParams) (*model.SavedSet, error) {
	v, ok := model.VariantByID(p.VariantID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, p.VariantID)
	}
	if len(p.Combinations) == 0 {
		return nil, fmt.Errorf("%w: no combinations", ErrInvalidSavedSet)
	}
	for _, c := range p.Combinations {
		if err := c.Validate(v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSavedSet, err)
		}
	}
	if p.TargetContest <= 0 {
		return nil, fmt.Errorf("%w: target contest must be positive", ErrInvalidSavedSet)
	}

	set := &model.SavedSet{
		ID:            uuid.NewString(),
		VariantID:     p.VariantID,
		Kind:          p.Kind,
		Combinations:  p.Combinations,
		TargetContest: p.TargetContest,
		CreatedAt:     time.Now().UTC(),
	}

	switch p.Kind {
	case model.KindPlain:
		// nothing else to set up
	case model.KindTeimosinha:
		if len(p.Combinations) != 1 {
			return nil, fmt.Errorf("%w: teimosinha tracks exactly one combination", ErrInvalidSavedSet)
		}
		if p.ContestCount < 1 {
			return nil, fmt.Errorf("%w: teimosinha needs at least one contest", ErrInvalidSavedSet)
		}
		contests := make([]model.ContestRecord, p.ContestCount)
		for i := range contests {
			contests[i] = model.ContestRecord{
				Contest: p.TargetContest + i,
				Status:  model.ContestPending,
			}
		}
		set.Progress = &model.TeimosinhaProgress{
			ContestCount: p.ContestCount,
			Contests:     contests,
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSavedSet, p.Kind)
	}

	return s.sets.Create(ctx, set)
}

// GetSet retrieves one saved set.
func (s *ConferenceService) GetSet(ctx context.Context, id string) (*model.SavedSet, error) {
	return s.sets.GetByID(ctx, id)
}

// ListSets returns all saved sets, newest first.
func (s *ConferenceService) ListSets(ctx context.Context) ([]model.SavedSet, error) {
	return s.sets.List(ctx)
}

// DeleteSet removes a saved set.
func (s *ConferenceService) DeleteSet(ctx context.Context, id string) error {
	return s.sets.Delete(ctx, id)
}

// ConferManually checks a plain set against user-entered winning numbers.
// Engine validation runs under the lock, so a locked or invalid conference
// leaves the stored set untouched.
func (s *ConferenceService) ConferManually(ctx context.Context, id string, numbers []int) (*model.SavedSet, error) {
	var out *model.SavedSet
	err := s.locks.WithLock(id, func() error {
		set, err := s.sets.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated, err := conference.ApplyConference(*set, numbers, model.ProvenanceManual)
		if err != nil {
			return err
		}
		if err := s.sets.Update(ctx, updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	return out, err
}

// UndoManualConference removes a manual record from a set. Official records
// and unchecked sets are returned as-is.
func (s *ConferenceService) UndoManualConference(ctx context.Context, id string) (*model.SavedSet, error) {
	var out *model.SavedSet
	err := s.locks.WithLock(id, func() error {
		set, err := s.sets.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated := conference.UndoManualConference(*set)
		if reflect.DeepEqual(updated, *set) {
			out = set
			return nil
		}
		if err := s.sets.Update(ctx, updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	return out, err
}

// CheckSet runs an on-demand official check of one set. For plain sets an
// unavailable result surfaces as results.ErrResultNotAvailable; teimosinha
// sets simply advance as far as the published draws allow.
func (s *ConferenceService) CheckSet(ctx context.Context, id string) (*model.SavedSet, error) {
	set, _, err := s.checkOfficial(ctx, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		// Deleted between read and write; the caller sees the same
		// thing as a plain miss.
		return nil, repository.ErrSavedSetNotFound
	}
	return set, nil
}

// AutoCheckReport summarizes one auto-check pass.
type AutoCheckReport struct {
	Examined    int `json:"examined"`
	Updated     int `json:"updated"`
	Unavailable int `json:"unavailable"`
	Failed      int `json:"failed"`
}

// RunAutoCheck loads every saved set and officially checks the ones an
// official result could still change. Reconciliation is idempotent, so the
// pass is safe to re-run on any trigger cadence.
func (s *ConferenceService) RunAutoCheck(ctx context.Context) (AutoCheckReport, error) {
	var report AutoCheckReport

	sets, err := s.sets.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load sets for auto-check: %w", err)
	}

	for _, candidate := range conference.SelectAutoCheckCandidates(sets) {
		report.Examined++
		_, changed, err := s.checkOfficial(ctx, candidate.ID)
		switch {
		case errors.Is(err, results.ErrResultNotAvailable):
			report.Unavailable++
		case errors.Is(err, repository.ErrSavedSetNotFound):
			// Deleted since List; nothing to do.
		case err != nil:
			report.Failed++
			log.Warn().Err(err).Str("set_id", candidate.ID).Msg("Auto-check failed for set")
		case changed:
			report.Updated++
		}
	}

	log.Info().
		Int("examined", report.Examined).
		Int("updated", report.Updated).
		Int("unavailable", report.Unavailable).
		Int("failed", report.Failed).
		Msg("Auto-check pass finished")
	return report, nil
}

// checkOfficial reloads a set under its lock and applies the official check
// for its kind. It returns the resulting set (nil when the set vanished
// mid-cycle) and whether anything was persisted.
func (s *ConferenceService) checkOfficial(ctx context.Context, id string) (*model.SavedSet, bool, error) {
	var (
		out     *model.SavedSet
		changed bool
	)
	err := s.locks.WithLock(id, func() error {
		set, err := s.sets.GetByID(ctx, id)
		if err != nil {
			return err
		}

		switch set.Kind {
		case model.KindPlain:
			if set.Conference != nil && set.Conference.Provenance == model.ProvenanceOfficial {
				out = set // terminal, nothing to refresh
				return nil
			}
			result, err := s.lookup.Lookup(ctx, set.VariantID, set.TargetContest)
			if err != nil {
				out = set
				return err
			}
			updated, err := conference.ApplyConference(*set, result.Numbers, model.ProvenanceOfficial)
			if err != nil {
				return err
			}
			stored, err := s.persist(ctx, updated)
			if err != nil {
				return err
			}
			if stored {
				out, changed = &updated, true
			}
			return nil

		case model.KindTeimosinha:
			updated, err := conference.AdvanceTeimosinha(ctx, *set, s.lookup)
			if err != nil {
				return err
			}
			if reflect.DeepEqual(updated, *set) {
				out = set
				return nil
			}
			stored, err := s.persist(ctx, updated)
			if err != nil {
				return err
			}
			if stored {
				out, changed = &updated, true
			}
			return nil
		}
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSavedSet, set.Kind)
	})
	return out, changed, err
}

// persist writes an updated set. A concurrent delete is reported as stored
// being false, not as an error.
func (s *ConferenceService) persist(ctx context.Context, updated model.SavedSet) (bool, error) {
	if err := s.sets.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrSavedSetNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
