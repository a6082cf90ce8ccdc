package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/simple-weather/internal/prefstore"
)

// Scheduler periodically runs maintenance on the preference store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     prefstore.Maintainer
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler. store may be nil when the backend needs no
// upkeep.
func New(store prefstore.Maintainer, interval time.Duration, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		store:     store,
		interval:  interval,
		timeout:   time.Minute,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the maintenance job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.store == nil || s.interval <= 0 {
		s.log.Info().Msg("store maintenance disabled; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.runMaintenance)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("store maintenance scheduled")
	return nil
}

func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.store.Maintain(ctx); err != nil {
		s.log.Error().Err(err).Msg("store maintenance failed")
		return
	}
	s.log.Debug().Dur("took", time.Since(started)).Msg("store maintenance completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
