package model

import (
	"fmt"
	"time"
)

// Provenance records where the winning numbers of a conference came from.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"   // user-entered numbers
	ProvenanceOfficial Provenance = "official" // fetched from the results API
)

// SetKind distinguishes the two flavors of saved set.
type SetKind string

const (
	KindPlain      SetKind = "plain"      // 1..N combinations checked against one contest
	KindTeimosinha SetKind = "teimosinha" // one combination tracked across consecutive contests
)

// ContestStatus is the per-contest state of a teimosinha record.
type ContestStatus string

const (
	ContestPending ContestStatus = "pending"
	ContestChecked ContestStatus = "checked"
)

// Combination is a set of distinct numbers for a variant. Order is irrelevant.
type Combination []int

// Validate checks the combination against the variant's arity and range.
func (c Combination) Validate(v Variant) error {
	if len(c) != v.NumbersPerGame {
		return fmt.Errorf("combination has %d numbers, %s requires %d", len(c), v.Name, v.NumbersPerGame)
	}
	seen := make(map[int]struct{}, len(c))
	for _, n := range c {
		if n < 1 || n > v.TotalNumbers {
			return fmt.Errorf("number %d out of range 1-%d", n, v.TotalNumbers)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("number %d repeated", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// DrawResult is one official draw as returned by the results API.
type DrawResult struct {
	VariantID string    `json:"variantId"`
	Contest   int       `json:"contest"`
	Numbers   []int     `json:"numbers"`
	DrawDate  time.Time `json:"drawDate,omitempty"`
}

// ConferenceRecord is the outcome of checking a plain set against winning numbers.
// A present record with an empty TierSummary means "checked, zero prizes";
// a nil record on the set means "not yet checked".
type ConferenceRecord struct {
	WinningNumbers []int       `json:"winningNumbers"`
	TierSummary    map[int]int `json:"tierSummary"` // prize tier -> combinations reaching it
	CheckedAt      time.Time   `json:"checkedAt"`
	Provenance     Provenance  `json:"provenance"`
}

// ContestRecord tracks one contest of a teimosinha set.
type ContestRecord struct {
	Contest        int           `json:"contest"`
	Status         ContestStatus `json:"status"`
	WinningNumbers []int         `json:"winningNumbers,omitempty"`
	Hits           int           `json:"hits,omitempty"`
}

// TeimosinhaProgress tracks a single combination across consecutive contests.
type TeimosinhaProgress struct {
	ContestCount int             `json:"contestCount"`
	Contests     []ContestRecord `json:"contests"` // ascending contest order
}

// FirstPending returns the index of the first pending contest, or -1 when
// every contest has been checked.
func (p *TeimosinhaProgress) FirstPending() int {
	for i, c := range p.Contests {
		if c.Status == ContestPending {
			return i
		}
	}
	return -1
}

// SavedSet is the persisted unit a user can confer. Kind is immutable after
// save: plain sets carry Conference, teimosinha sets carry Progress.
type SavedSet struct {
	ID            string              `json:"id"`
	VariantID     string              `json:"variantId"`
	Kind          SetKind             `json:"kind"`
	Combinations  []Combination       `json:"combinations"`
	TargetContest int                 `json:"targetContest"`
	Conference    *ConferenceRecord   `json:"conference,omitempty"`
	Progress      *TeimosinhaProgress `json:"progress,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ConferenceStatus derives the display state of a set.
func (s *SavedSet) ConferenceStatus() string {
	switch {
	case s.Kind == KindTeimosinha:
		if s.Progress != nil && s.Progress.FirstPending() == -1 {
			return "all_checked"
		}
		return "tracking"
	case s.Conference == nil:
		return "unchecked"
	case s.Conference.Provenance == ProvenanceOfficial:
		return "officially_checked"
	default:
		return "manually_checked"
	}
}

// Clone returns a deep copy. Conference operations work on copies so a set
// being rendered elsewhere is never mutated in place.
func (s SavedSet) Clone() SavedSet {
	out := s
	out.Combinations = make([]Combination, len(s.Combinations))
	for i, c := range s.Combinations {
		out.Combinations[i] = append(Combination(nil), c...)
	}
	if s.Conference != nil {
		rec := *s.Conference
		rec.WinningNumbers = append([]int(nil), s.Conference.WinningNumbers...)
		rec.TierSummary = make(map[int]int, len(s.Conference.TierSummary))
		for k, v := range s.Conference.TierSummary {
			rec.TierSummary[k] = v
		}
		out.Conference = &rec
	}
	if s.Progress != nil {
		prog := *s.Progress
		prog.Contests = make([]ContestRecord, len(s.Progress.Contests))
		for i, c := range s.Progress.Contests {
			c.WinningNumbers = append([]int(nil), c.WinningNumbers...)
			prog.Contests[i] = c
		}
		out.Progress = &prog
	}
	return out
}
