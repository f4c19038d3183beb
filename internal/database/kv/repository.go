// Package kv provides raw row access for the scalar store.
//
// # Usage
//
//	repo := kv.NewRepository(db)
//	entry, err := repo.Get("users")
package kv

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/lessonstore/internal/database"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// Repository handles all scalar store row operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new key/value repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves an entry by key. Returns database.ErrNotFound when absent.
func (r *Repository) Get(key string) (*entities.KVEntry, error) {
	var entry entities.KVEntry
	err := r.db.Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Set creates or replaces the value stored under key.
func (r *Repository) Set(key, value string) error {
	entry := entities.KVEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		if database.IsStorageFull(err) {
			return fmt.Errorf("set %q: %w", key, database.ErrQuotaExceeded)
		}
		return err
	}
	return nil
}

// Delete removes an entry by key. Deleting a missing key is not an error.
func (r *Repository) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.KVEntry{}).Error
}

// Has reports whether key is present.
func (r *Repository) Has(key string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.KVEntry{}).Where("key = ?", key).Count(&count).Error
	return count > 0, err
}

// TotalSize returns the number of value bytes stored, excluding one key so a
// pending overwrite can be measured against its replacement.
func (r *Repository) TotalSize(excludeKey string) (int64, error) {
	var total int64
	err := r.db.Model(&entities.KVEntry{}).
		Where("key <> ?", excludeKey).
		Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)").
		Scan(&total).Error
	return total, err
}

// Keys lists stored keys with the given prefix, ordered. The prefix matches
// literally and case-sensitively, so ids containing '_' or '%' are safe.
func (r *Repository) Keys(prefix string) ([]string, error) {
	var keys []string
	err := r.db.Model(&entities.KVEntry{}).
		Where("substr(key, 1, length(?)) = ?", prefix, prefix).
		Order("key ASC").
		Pluck("key", &keys).Error
	return keys, err
}
