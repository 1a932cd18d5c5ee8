package services

import (
	"context"
	"time"

	"chatbot-retrieval-core/internal/auth"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/store"

	"github.com/go-co-op/gocron"
)

// Scheduler runs the periodic maintenance jobs: purging expired sessions
// and sweeping stale fallback entries.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{scheduler: s}
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleSessionPurge deletes already-expired sessions on an interval.
func (s *Scheduler) ScheduleSessionPurge(guard *auth.SessionGuard, interval time.Duration) error {
	_, err := s.scheduler.Every(interval).Tag("session-purge").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := guard.PurgeExpired(ctx)
		if err != nil {
			logger.Warn("Session purge failed", "error", err.Error())
			return
		}
		if removed > 0 {
			logger.Info("Purged expired sessions", "removed", removed)
		}
	})
	return err
}

// ScheduleFallbackSweep drops fallback entries older than ttl. A zero ttl
// keeps entries for the process lifetime and schedules nothing.
func (s *Scheduler) ScheduleFallbackSweep(registry *store.FallbackRegistry, ttl, interval time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	_, err := s.scheduler.Every(interval).Tag("fallback-sweep").Do(func() {
		removed := registry.Sweep(ttl)
		if removed > 0 {
			logger.Info("Swept stale fallback entries", "removed", removed)
		}
	})
	return err
}
