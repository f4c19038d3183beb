package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a prune task names no retention.
const DefaultAuditRetentionDays = 90

// AuditPruner deletes audit events older than a retention window.
type AuditPruner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// PruneAuditEventsTask drops audit events past their retention.
type PruneAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit pruning tasks.
func (t PruneAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

func (t PruneAuditEventsTask) retention() (int, time.Duration) {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return days, time.Duration(days) * 24 * time.Hour
}

// PruneAuditEventsProcessor creates a processor function for
// PruneAuditEventsTask.
func PruneAuditEventsProcessor(pruner AuditPruner) backlite.QueueProcessor[PruneAuditEventsTask] {
	return func(ctx context.Context, task PruneAuditEventsTask) error {
		if pruner == nil {
			return fmt.Errorf("audit pruner not configured")
		}

		days, retention := task.retention()
		deleted, err := pruner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("prune audit events: %w", err)
		}

		log.Printf("[TASK] Pruned %d audit events older than %d days", deleted, days)
		return nil
	}
}

// NewPruneAuditEventsQueue creates a backlite queue for audit pruning tasks.
func NewPruneAuditEventsQueue(pruner AuditPruner) backlite.Queue {
	return backlite.NewQueue(PruneAuditEventsProcessor(pruner))
}
