package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CatalogResetter replaces the catalog with the initial dataset.
type CatalogResetter interface {
	ResetVideosFrom(ctx context.Context, trigger string) (int, error)
}

// ResetCatalogTask clears the video catalog and reseeds it.
type ResetCatalogTask struct {
	Trigger string `json:"trigger"`
}

// Config returns the queue configuration for catalog reset tasks. A reset is
// destructive and is not retried.
func (t ResetCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reset_catalog",
		MaxAttempts: 1,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ResetCatalogProcessor creates a processor function for ResetCatalogTask.
func ResetCatalogProcessor(resetter CatalogResetter) backlite.QueueProcessor[ResetCatalogTask] {
	return func(ctx context.Context, task ResetCatalogTask) error {
		if resetter == nil {
			return fmt.Errorf("catalog resetter not configured")
		}

		trigger := task.Trigger
		if trigger == "" {
			trigger = "queue"
		}

		seeded, err := resetter.ResetVideosFrom(ctx, trigger)
		if err != nil {
			return fmt.Errorf("reset catalog: %w", err)
		}

		log.Printf("[TASK] Catalog reset (%s), %d seed videos written", trigger, seeded)
		return nil
	}
}

// NewResetCatalogQueue creates a backlite queue for catalog reset tasks.
func NewResetCatalogQueue(resetter CatalogResetter) backlite.Queue {
	return backlite.NewQueue(ResetCatalogProcessor(resetter))
}
