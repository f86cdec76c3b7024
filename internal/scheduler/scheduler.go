// Package scheduler triggers periodic auto-check passes.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"palpiteiro/internal/service"
)

// autoCheckTimeout bounds one pass; a hung results API must not pile up
// overlapping passes.
const autoCheckTimeout = 5 * time.Minute

// AutoChecker runs one reconciliation pass over all saved sets.
type AutoChecker interface {
	RunAutoCheck(ctx context.Context) (service.AutoCheckReport, error)
}

// Scheduler runs the auto-check on a cron cadence. Passes are idempotent, so
// an extra run is harmless and a missed one is caught up by the next.
type Scheduler struct {
	cron    *cron.Cron
	checker AutoChecker
}

// New creates a scheduler firing on cronSpec (standard 5-field specs and
// descriptors like "@every 30m" are accepted).
func New(checker AutoChecker, cronSpec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		checker: checker,
	}
	if _, err := s.cron.AddFunc(cronSpec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing scheduled passes. When runNow is set one pass runs
// immediately in the background, so freshly published draws are picked up on
// boot instead of waiting a full period.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	if runNow {
		go s.runOnce()
	}
}

// Stop halts the schedule and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), autoCheckTimeout)
	defer cancel()

	if _, err := s.checker.RunAutoCheck(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduled auto-check pass failed")
	}
}
