package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// LegacySweeper moves catalog data left under the legacy key into the record
// store.
type LegacySweeper interface {
	SweepLegacy(ctx context.Context) (int, error)
}

// SweepLegacyTask runs a legacy sweep, typically after a legacy export was
// imported into the scalar store.
type SweepLegacyTask struct{}

// Config returns the queue configuration for legacy sweep tasks. A sweep is
// idempotent, so failures are retried.
func (t SweepLegacyTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_legacy",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepLegacyProcessor creates a processor function for SweepLegacyTask.
func SweepLegacyProcessor(sweeper LegacySweeper) backlite.QueueProcessor[SweepLegacyTask] {
	return func(ctx context.Context, task SweepLegacyTask) error {
		if sweeper == nil {
			return fmt.Errorf("legacy sweeper not configured")
		}

		moved, err := sweeper.SweepLegacy(ctx)
		if err != nil {
			return fmt.Errorf("sweep legacy videos: %w", err)
		}

		log.Printf("[TASK] Legacy sweep moved %d videos", moved)
		return nil
	}
}

// NewSweepLegacyQueue creates a backlite queue for legacy sweep tasks.
func NewSweepLegacyQueue(sweeper LegacySweeper) backlite.Queue {
	return backlite.NewQueue(SweepLegacyProcessor(sweeper))
}
