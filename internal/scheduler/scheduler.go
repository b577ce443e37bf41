package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// LogPurger deletes search logs older than a retention window
type LogPurger interface {
	PurgeSearchLogs(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	purger    LogPurger
	retention time.Duration
	spec      string
	isRunning bool
}

// NewScheduler creates a scheduler that purges search logs older than
// retentionDays on the given cron spec
func NewScheduler(purger LogPurger, retentionDays int, spec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		spec:      spec,
	}
}

// Start registers the jobs and starts the cron runner. A non-positive
// retention disables the purge.
func (s *Scheduler) Start() error {
	if s.retention <= 0 {
		log.Println("⚠️  Scheduler: search log retention disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			log.Printf("❌ Scheduler: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("✅ Scheduler: purging search logs older than %s (cron: %s)", s.retention, s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("🛑 Scheduler: Stopped")
	}
}

// RunNow purges expired search logs immediately
func (s *Scheduler) RunNow(ctx context.Context) (int64, error) {
	n, err := s.purger.PurgeSearchLogs(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("search log purge failed: %w", err)
	}
	log.Printf("🧹 Scheduler: purged %d search logs", n)
	return n, nil
}
