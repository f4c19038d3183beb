// Package audit stores and queries the audit trail.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lessonstore/internal/entities"
)

// defaultLimit applies when a query asks for no limit.
const defaultLimit = 50

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	UserID    string
	EventType entities.AuditEventType
	EntityID  string
	Since     time.Time
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		db = db.Where("event_type = ?", f.EventType)
	}
	if f.EntityID != "" {
		db = db.Where("entity_id = ?", f.EntityID)
	}
	if !f.Since.IsZero() {
		db = db.Where("created_at >= ?", f.Since)
	}
	return db
}

// TypeCount is the number of events of one type.
type TypeCount struct {
	EventType entities.AuditEventType
	Count     int64
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append stores an event, stamping CreatedAt when unset.
func (r *Repository) Append(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// List returns matching events, newest first. Events logged in the same
// instant keep insertion order reversed.
func (r *Repository) List(f Filter, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var events []entities.AuditEvent
	err := f.scope(r.db.Model(&entities.AuditEvent{})).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountByType tallies matching events per type, ordered by type.
func (r *Repository) CountByType(f Filter) ([]TypeCount, error) {
	var counts []TypeCount
	err := f.scope(r.db.Model(&entities.AuditEvent{})).
		Select("event_type, COUNT(*) AS count").
		Group("event_type").
		Order("event_type ASC").
		Scan(&counts).Error
	return counts, err
}

// PruneBefore deletes events created before cutoff and returns how many
// went.
func (r *Repository) PruneBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
