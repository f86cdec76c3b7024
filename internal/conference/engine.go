// Package conference implements the reconciliation rules for saved lottery
// sets: hit counting, prize-tier summarization, manual/official precedence and
// teimosinha advancement. Every operation takes a SavedSet value and returns a
// new one; the caller owns persistence of the result.
package conference

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"palpiteiro/internal/model"
)

// Common errors for conference operations.
var (
	// ErrInvalidWinningNumbers is returned when the supplied winning numbers
	// do not form exactly one valid combination for the variant.
	ErrInvalidWinningNumbers = errors.New("invalid winning numbers")

	// ErrConferenceLocked is returned when a manual conference is attempted
	// on a set that already carries an official record.
	ErrConferenceLocked = errors.New("set already conferred against official result")

	// ErrWrongKind is returned when an operation is applied to the wrong
	// kind of set (plain operation on a teimosinha set or vice versa).
	ErrWrongKind = errors.New("operation does not apply to this set kind")
)

// ResultLookup retrieves one official draw. Implementations return
// results.ErrResultNotAvailable (or any other error) when the contest has not
// been drawn yet or the lookup failed; advancement treats both the same way.
type ResultLookup interface {
	Lookup(ctx context.Context, variantID string, contest int) (*model.DrawResult, error)
}

// ComputeHits returns the size of the intersection between a combination and
// the winning numbers. Both inputs are treated as sets: ordering is irrelevant
// and a duplicated winning number can never match the same combination number
// twice.
func ComputeHits(combination model.Combination, winning []int) int {
	drawn := make(map[int]struct{}, len(winning))
	for _, n := range winning {
		drawn[n] = struct{}{}
	}
	hits := 0
	for _, n := range combination {
		if _, ok := drawn[n]; ok {
			hits++
		}
	}
	return hits
}

// SummarizeTiers computes hits for every combination and counts how many
// reached each recognized prize tier. Hit counts that are not a tier for the
// variant contribute no entry, so a fully losing conference yields an empty
// map, not a map of zeroes.
func SummarizeTiers(combinations []model.Combination, winning []int, v model.Variant) map[int]int {
	summary := make(map[int]int)
	for _, c := range combinations {
		hits := ComputeHits(c, winning)
		if v.IsTier(hits) {
			summary[hits]++
		}
	}
	return summary
}

// validateWinningNumbers enforces exactly NumbersPerGame distinct values in
// range. The message names the offending number so the caller can surface it
// next to the user's input.
func validateWinningNumbers(winning []int, v model.Variant) error {
	if len(winning) != v.NumbersPerGame {
		return fmt.Errorf("%w: expected %d numbers, got %d", ErrInvalidWinningNumbers, v.NumbersPerGame, len(winning))
	}
	seen := make(map[int]struct{}, len(winning))
	for _, n := range winning {
		if n < 1 || n > v.TotalNumbers {
			return fmt.Errorf("%w: number %d out of range 1-%d", ErrInvalidWinningNumbers, n, v.TotalNumbers)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: number %d repeated", ErrInvalidWinningNumbers, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// ApplyConference checks a plain set against winning numbers and returns the
// updated copy. An official conference unconditionally replaces whatever
// record exists; a manual conference is refused with ErrConferenceLocked once
// an official record is present. On any error the input set is returned
// unchanged.
func ApplyConference(set model.SavedSet, winning []int, prov model.Provenance) (model.SavedSet, error) {
	if set.Kind != model.KindPlain {
		return set, fmt.Errorf("%w: conference applies to plain sets", ErrWrongKind)
	}
	v, ok := model.VariantByID(set.VariantID)
	if !ok {
		return set, fmt.Errorf("unknown variant %q", set.VariantID)
	}
	if err := validateWinningNumbers(winning, v); err != nil {
		return set, err
	}
	if prov == model.ProvenanceManual && set.Conference != nil && set.Conference.Provenance == model.ProvenanceOfficial {
		return set, ErrConferenceLocked
	}

	numbers := append([]int(nil), winning...)
	sort.Ints(numbers)

	out := set.Clone()
	out.Conference = &model.ConferenceRecord{
		WinningNumbers: numbers,
		TierSummary:    SummarizeTiers(out.Combinations, winning, v),
		CheckedAt:      time.Now().UTC(),
		Provenance:     prov,
	}
	return out, nil
}

// UndoManualConference removes a manual record, returning the set to the
// unchecked state. It is the identity when the record is official or absent:
// official truth is never erasable through this path.
func UndoManualConference(set model.SavedSet) model.SavedSet {
	if set.Conference == nil || set.Conference.Provenance != model.ProvenanceManual {
		return set
	}
	out := set.Clone()
	out.Conference = nil
	return out
}

// AdvanceTeimosinha checks pending contests of a teimosinha set in ascending
// order, stopping at the first contest whose official result is unavailable.
// Draws happen in contest order, so an unavailable contest means every later
// one is unavailable too; advancement never skips ahead. All newly checked
// records are applied on a single copy so the caller persists once.
//
// An unavailable result is steady state, not a failure: the returned error is
// always nil unless the set is not a teimosinha set.
func AdvanceTeimosinha(ctx context.Context, set model.SavedSet, lookup ResultLookup) (model.SavedSet, error) {
	if set.Kind != model.KindTeimosinha || set.Progress == nil {
		return set, fmt.Errorf("%w: advancement applies to teimosinha sets", ErrWrongKind)
	}
	if len(set.Combinations) == 0 {
		return set, fmt.Errorf("%w: teimosinha set has no combination", ErrWrongKind)
	}

	out := set.Clone()
	combination := out.Combinations[0]
	changed := false
	for i := range out.Progress.Contests {
		rec := &out.Progress.Contests[i]
		if rec.Status == model.ContestChecked {
			continue
		}
		result, err := lookup.Lookup(ctx, out.VariantID, rec.Contest)
		if err != nil {
			break // not drawn yet or lookup failed: later contests stay pending
		}
		numbers := append([]int(nil), result.Numbers...)
		sort.Ints(numbers)
		rec.WinningNumbers = numbers
		rec.Hits = ComputeHits(combination, result.Numbers)
		rec.Status = model.ContestChecked
		changed = true
	}
	if !changed {
		return set, nil
	}
	return out, nil
}

// SelectAutoCheckCandidates filters a collection down to the sets an official
// check could still change: plain sets that are unchecked or only manually
// checked, and every teimosinha set. Officially checked plain sets are
// terminal and skipped.
func SelectAutoCheckCandidates(sets []model.SavedSet) []model.SavedSet {
	var out []model.SavedSet
	for _, s := range sets {
		switch s.Kind {
		case model.KindPlain:
			if s.Conference == nil || s.Conference.Provenance == model.ProvenanceManual {
				out = append(out, s)
			}
		case model.KindTeimosinha:
			out = append(out, s)
		}
	}
	return out
}
