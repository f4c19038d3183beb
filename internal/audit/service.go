// Package audit records data-layer events worth reviewing later: migration
// outcomes, catalog resets, bulk deletions and account status changes.
//
// Recording never fails the operation being audited. Write errors are logged
// and dropped. A nil *Service is valid and records nothing.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mrlokans/lessonstore/internal/database/audit"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// Filter narrows event queries. Zero fields match everything.
type Filter = audit.Filter

// TypeCount is the number of events of one type.
type TypeCount = audit.TypeCount

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.Append(event)
}

func (s *Service) record(event *entities.AuditEvent, err error) {
	if s == nil {
		return
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	if logErr := s.repo.Append(event); logErr != nil {
		log.Printf("Failed to log audit event %s: %v", event.Action, logErr)
	}
}

// LogMigration records the outcome of a catalog migration run.
func (s *Service) LogMigration(state string, moved int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMigration,
		Action:      "catalog_" + strings.ToLower(state),
		Description: fmt.Sprintf("Catalog migration finished as %s, %d videos written", state, moved),
		EntityType:  "video",
		Metadata:    metadata(map[string]any{"state": state, "videos_count": moved}),
		Status:      entities.AuditStatusSuccess,
	}
	s.record(event, err)
}

// LogCatalogReset records an explicit clear-and-reseed of the catalog.
func (s *Service) LogCatalogReset(trigger string, seeded int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCatalog,
		Action:      "videos_reset",
		Description: fmt.Sprintf("Catalog reset (%s), %d seed videos written", trigger, seeded),
		EntityType:  "video",
		Metadata:    metadata(map[string]any{"trigger": trigger, "videos_count": seeded}),
		Status:      entities.AuditStatusSuccess,
	}
	s.record(event, err)
}

// LogDelete records a deletion of one or more entities.
func (s *Service) LogDelete(entityType string, ids []string) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: fmt.Sprintf("Deleted %d %s record(s)", len(ids), entityType),
		EntityType:  entityType,
		Metadata:    metadata(map[string]any{"ids": ids}),
		Status:      entities.AuditStatusSuccess,
	}
	if len(ids) == 1 {
		event.EntityID = ids[0]
	}
	s.record(event, nil)
}

// LogUserStatus records an account being enabled or disabled.
func (s *Service) LogUserStatus(userID string, status entities.UserStatus) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventUser,
		Action:      "user_" + string(status),
		Description: "Account status set to " + string(status),
		EntityType:  "user",
		EntityID:    userID,
		Status:      entities.AuditStatusSuccess,
	}
	s.record(event, nil)
}

// Recent returns up to limit matching events, newest first.
func (s *Service) Recent(f Filter, limit int) ([]entities.AuditEvent, error) {
	return s.repo.List(f, limit)
}

// Summary tallies matching events per type.
func (s *Service) Summary(f Filter) ([]TypeCount, error) {
	return s.repo.CountByType(f)
}

// DeleteOldEvents removes events older than the retention window.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.PruneBefore(time.Now().Add(-retention))
}

func metadata(values map[string]any) string {
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
