// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcalc/internal/modules/marketdata"
)

// cacheSweepSchedule runs the expired-entry sweep every 15 minutes.
const cacheSweepSchedule = "*/15 * * * *"

// Scheduler owns the cron runner and its registered jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler with the cache sweep job registered.
func New(cache *marketdata.Cache, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}

	_, err := s.cron.AddFunc(cacheSweepSchedule, func() {
		removed, err := cache.Sweep()
		if err != nil {
			s.log.Error().Err(err).Msg("Cache sweep failed")
			return
		}
		if removed > 0 {
			s.log.Info().Int64("removed", removed).Msg("Cache sweep completed")
		}
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
