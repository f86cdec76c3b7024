package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palpiteiro/internal/model"
	"palpiteiro/internal/repository"
	"palpiteiro/internal/results"
)

// memSetStore is an in-memory SavedSetStore for service tests.
type memSetStore struct {
	mu   sync.Mutex
	sets map[string]model.SavedSet

	// vanishOnUpdate simulates a set deleted between the service's read
	// and write: Update on a listed ID fails with ErrSavedSetNotFound.
	vanishOnUpdate map[string]bool
}

func newMemSetStore() *memSetStore {
	return &memSetStore{
		sets:           make(map[string]model.SavedSet),
		vanishOnUpdate: make(map[string]bool),
	}
}

func (m *memSetStore) Create(ctx context.Context, set *model.SavedSet) (*model.SavedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[set.ID] = set.Clone()
	out := set.Clone()
	return &out, nil
}

func (m *memSetStore) GetByID(ctx context.Context, id string) (*model.SavedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[id]
	if !ok {
		return nil, repository.ErrSavedSetNotFound
	}
	out := set.Clone()
	return &out, nil
}

func (m *memSetStore) List(ctx context.Context) ([]model.SavedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SavedSet, 0, len(m.sets))
	for _, set := range m.sets {
		out = append(out, set.Clone())
	}
	return out, nil
}

func (m *memSetStore) Update(ctx context.Context, set model.SavedSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vanishOnUpdate[set.ID] {
		delete(m.sets, set.ID)
		return repository.ErrSavedSetNotFound
	}
	if _, ok := m.sets[set.ID]; !ok {
		return repository.ErrSavedSetNotFound
	}
	m.sets[set.ID] = set.Clone()
	return nil
}

func (m *memSetStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[id]; !ok {
		return repository.ErrSavedSetNotFound
	}
	delete(m.sets, id)
	return nil
}

// mapLookup serves draws out of a fixed map and reports anything else as not
// yet available.
type mapLookup struct {
	draws map[int][]int // contest -> winning numbers (lotofacil)
}

func (l *mapLookup) Lookup(ctx context.Context, variantID string, contest int) (*model.DrawResult, error) {
	numbers, ok := l.draws[contest]
	if !ok {
		return nil, results.ErrResultNotAvailable
	}
	return &model.DrawResult{VariantID: variantID, Contest: contest, Numbers: numbers}, nil
}

func ascendingNumbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// elevenHits shares exactly 11 numbers with ascendingNumbers(15).
func elevenHits() []int {
	return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 22, 23, 24, 25}
}

func newTestService(lookup *mapLookup) (*ConferenceService, *memSetStore) {
	store := newMemSetStore()
	return NewConferenceService(store, lookup), store
}

func TestSaveSetValidation(t *testing.T) {
	svc, _ := newTestService(&mapLookup{})
	ctx := context.Background()

	valid := SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	}

	tests := []struct {
		name    string
		mutate  func(p *SaveSetParams)
		wantErr error
	}{
		{
			name:    "unknown variant",
			mutate:  func(p *SaveSetParams) { p.VariantID = "powerball" },
			wantErr: ErrUnknownVariant,
		},
		{
			name:    "no combinations",
			mutate:  func(p *SaveSetParams) { p.Combinations = nil },
			wantErr: ErrInvalidSavedSet,
		},
		{
			name: "combination with wrong arity",
			mutate: func(p *SaveSetParams) {
				p.Combinations = []model.Combination{ascendingNumbers(14)}
			},
			wantErr: ErrInvalidSavedSet,
		},
		{
			name:    "non-positive target contest",
			mutate:  func(p *SaveSetParams) { p.TargetContest = 0 },
			wantErr: ErrInvalidSavedSet,
		},
		{
			name: "teimosinha with multiple combinations",
			mutate: func(p *SaveSetParams) {
				p.Kind = model.KindTeimosinha
				p.ContestCount = 3
				p.Combinations = []model.Combination{ascendingNumbers(15), elevenHits()}
			},
			wantErr: ErrInvalidSavedSet,
		},
		{
			name: "teimosinha without contest count",
			mutate: func(p *SaveSetParams) {
				p.Kind = model.KindTeimosinha
				p.ContestCount = 0
			},
			wantErr: ErrInvalidSavedSet,
		},
		{
			name:    "unknown kind",
			mutate:  func(p *SaveSetParams) { p.Kind = "bolao" },
			wantErr: ErrInvalidSavedSet,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := svc.SaveSet(ctx, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSaveSetPlain(t *testing.T) {
	svc, _ := newTestService(&mapLookup{})

	set, err := svc.SaveSet(context.Background(), SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15), elevenHits()},
		TargetContest: 3150,
	})
	require.NoError(t, err)
	require.NotEmpty(t, set.ID)
	assert.Equal(t, model.KindPlain, set.Kind)
	assert.Nil(t, set.Conference)
	assert.Nil(t, set.Progress)
	assert.Equal(t, "unchecked", set.ConferenceStatus())
}

func TestSaveSetTeimosinha(t *testing.T) {
	svc, _ := newTestService(&mapLookup{})

	set, err := svc.SaveSet(context.Background(), SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindTeimosinha,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
		ContestCount:  3,
	})
	require.NoError(t, err)
	require.NotNil(t, set.Progress)
	require.Len(t, set.Progress.Contests, 3)
	for i, rec := range set.Progress.Contests {
		assert.Equal(t, 3150+i, rec.Contest)
		assert.Equal(t, model.ContestPending, rec.Status)
	}
	assert.Equal(t, "tracking", set.ConferenceStatus())
}

func TestConferManually(t *testing.T) {
	svc, store := newTestService(&mapLookup{})
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	checked, err := svc.ConferManually(ctx, set.ID, elevenHits())
	require.NoError(t, err)
	require.NotNil(t, checked.Conference)
	assert.Equal(t, model.ProvenanceManual, checked.Conference.Provenance)
	assert.Equal(t, map[int]int{11: 1}, checked.Conference.TierSummary)

	stored, err := store.GetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, checked.Conference, stored.Conference)
}

func TestConferManuallyInvalidNumbersLeavesSetUntouched(t *testing.T) {
	svc, store := newTestService(&mapLookup{})
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	bad := append(ascendingNumbers(14), 99)
	_, err = svc.ConferManually(ctx, set.ID, bad)
	assert.Error(t, err)

	stored, err := store.GetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Conference)
}

func TestConferManuallyRefusedAfterOfficialCheck(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{3150: elevenHits()}}
	svc, _ := newTestService(lookup)
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	_, err = svc.CheckSet(ctx, set.ID)
	require.NoError(t, err)

	_, err = svc.ConferManually(ctx, set.ID, ascendingNumbers(15))
	assert.Error(t, err)
}

func TestUndoManualConference(t *testing.T) {
	svc, store := newTestService(&mapLookup{})
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	_, err = svc.ConferManually(ctx, set.ID, elevenHits())
	require.NoError(t, err)

	undone, err := svc.UndoManualConference(ctx, set.ID)
	require.NoError(t, err)
	assert.Nil(t, undone.Conference)

	stored, err := store.GetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Conference)

	// Undoing an already unchecked set is the identity.
	again, err := svc.UndoManualConference(ctx, set.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Conference)
}

func TestCheckSetPlain(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{3150: elevenHits()}}
	svc, _ := newTestService(lookup)
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	checked, err := svc.CheckSet(ctx, set.ID)
	require.NoError(t, err)
	require.NotNil(t, checked.Conference)
	assert.Equal(t, model.ProvenanceOfficial, checked.Conference.Provenance)
	assert.Equal(t, "officially_checked", checked.ConferenceStatus())
}

func TestCheckSetResultNotAvailable(t *testing.T) {
	svc, _ := newTestService(&mapLookup{})
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 9999,
	})
	require.NoError(t, err)

	_, err = svc.CheckSet(ctx, set.ID)
	assert.ErrorIs(t, err, results.ErrResultNotAvailable)
}

func TestCheckSetMissing(t *testing.T) {
	svc, _ := newTestService(&mapLookup{})

	_, err := svc.CheckSet(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrSavedSetNotFound)
}

func TestCheckSetAdvancesTeimosinha(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{
		3150: elevenHits(),
		3151: ascendingNumbers(15),
		// 3152 not drawn yet
	}}
	svc, _ := newTestService(lookup)
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindTeimosinha,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
		ContestCount:  3,
	})
	require.NoError(t, err)

	checked, err := svc.CheckSet(ctx, set.ID)
	require.NoError(t, err)
	require.NotNil(t, checked.Progress)

	assert.Equal(t, model.ContestChecked, checked.Progress.Contests[0].Status)
	assert.Equal(t, 11, checked.Progress.Contests[0].Hits)
	assert.Equal(t, model.ContestChecked, checked.Progress.Contests[1].Status)
	assert.Equal(t, 15, checked.Progress.Contests[1].Hits)
	assert.Equal(t, model.ContestPending, checked.Progress.Contests[2].Status)
}

func TestRunAutoCheck(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{
		3150: elevenHits(),
	}}
	svc, store := newTestService(lookup)
	ctx := context.Background()

	// Manually checked plain set with a published draw: the official
	// result must replace the manual record.
	manual, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)
	_, err = svc.ConferManually(ctx, manual.ID, ascendingNumbers(15))
	require.NoError(t, err)

	// Unchecked plain set whose contest has not been drawn.
	pending, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 9999,
	})
	require.NoError(t, err)

	// Officially checked plain set: terminal, not a candidate.
	official, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)
	_, err = svc.CheckSet(ctx, official.ID)
	require.NoError(t, err)

	// Teimosinha with nothing drawn yet: examined, nothing changes.
	stuck, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindTeimosinha,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 9999,
		ContestCount:  2,
	})
	require.NoError(t, err)

	report, err := svc.RunAutoCheck(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Examined, "officially checked set must be skipped")
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Unavailable)
	assert.Equal(t, 0, report.Failed)

	got, err := store.GetByID(ctx, manual.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Conference)
	assert.Equal(t, model.ProvenanceOfficial, got.Conference.Provenance)
	assert.Equal(t, map[int]int{11: 1}, got.Conference.TierSummary)

	got, err = store.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Conference)

	got, err = store.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContestPending, got.Progress.Contests[0].Status)
}

func TestRunAutoCheckIdempotent(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{3150: elevenHits()}}
	svc, _ := newTestService(lookup)
	ctx := context.Background()

	_, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)

	first, err := svc.RunAutoCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	// The set is now officially checked and drops out of the candidates.
	second, err := svc.RunAutoCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Examined)
	assert.Equal(t, 0, second.Updated)
}

func TestRunAutoCheckToleratesConcurrentDelete(t *testing.T) {
	lookup := &mapLookup{draws: map[int][]int{3150: elevenHits()}}
	svc, store := newTestService(lookup)
	ctx := context.Background()

	set, err := svc.SaveSet(ctx, SaveSetParams{
		VariantID:     "lotofacil",
		Kind:          model.KindPlain,
		Combinations:  []model.Combination{ascendingNumbers(15)},
		TargetContest: 3150,
	})
	require.NoError(t, err)
	store.vanishOnUpdate[set.ID] = true

	report, err := svc.RunAutoCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Examined)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Failed)
}
