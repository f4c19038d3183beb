// Package scheduler enqueues recurring maintenance jobs on cron schedules:
// the kiosk-mode catalog reset and audit pruning. The jobs themselves run on
// the task queue.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/lessonstore/internal/dataservice"
	"github.com/mrlokans/lessonstore/internal/tasks"
)

// Enqueuer persists tasks for the queue workers.
type Enqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

// Config selects which jobs run and when. An empty schedule disables a job.
type Config struct {
	CatalogResetEnabled  bool
	CatalogResetSchedule string
	AuditPruneSchedule   string
	AuditRetentionDays   int
}

// MaintenanceScheduler manages the recurring maintenance jobs.
type MaintenanceScheduler struct {
	queue  Enqueuer
	config Config

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewMaintenanceScheduler creates a new scheduler instance.
func NewMaintenanceScheduler(queue Enqueuer, cfg Config) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:   queue,
		config:  cfg,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the enabled jobs and starts the cron loop. It stops on its
// own when ctx is cancelled. Starting with no job enabled is a no-op.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.CatalogResetEnabled && s.config.CatalogResetSchedule != "" {
		err := s.addJob("catalog_reset", s.config.CatalogResetSchedule, func() backlite.Task {
			return tasks.ResetCatalogTask{Trigger: dataservice.ResetTriggerSchedule}
		})
		if err != nil {
			return err
		}
	}
	if s.config.AuditPruneSchedule != "" {
		err := s.addJob("audit_prune", s.config.AuditPruneSchedule, func() backlite.Task {
			return tasks.PruneAuditEventsTask{RetentionDays: s.config.AuditRetentionDays}
		})
		if err != nil {
			return err
		}
	}

	if len(s.entries) == 0 {
		log.Printf("Maintenance scheduler: no jobs enabled")
		return nil
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Maintenance scheduler: started with %d job(s)", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *MaintenanceScheduler) addJob(name, schedule string, build func() backlite.Task) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, name, err)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.enqueue(name, build())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = entryID

	nextRun, _ := GetNextRunTime(schedule, time.Now())
	log.Printf("Maintenance scheduler: %s on '%s' (%s). Next run: %v",
		name, schedule, GetCronDescription(schedule), nextRun)
	return nil
}

func (s *MaintenanceScheduler) enqueue(name string, task backlite.Task) {
	ids, err := s.queue.Enqueue(task)
	if err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue %s: %v", name, err)
		return
	}
	log.Printf("Maintenance scheduler: enqueued %s (%v)", name, ids)
}

// Stop stops the cron loop and waits for running job callbacks to return.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	log.Printf("Maintenance scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns when each registered job fires next.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}
