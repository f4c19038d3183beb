// Package videos is the record store for the video catalog.
//
// Every operation blocks until its SQLite transaction resolves and honours
// the caller's context. Listing order is a contract: newest upload first,
// ties broken by insertion order.
//
// # Usage
//
//	store, err := videos.NewStore(db).Open(ctx)
//	all, err := store.GetAll(ctx)
package videos

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/lessonstore/internal/database"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// Store handles all video catalog operations.
type Store struct {
	db *gorm.DB

	mu     sync.Mutex
	opened bool
}

// NewStore creates a record store over db. The videos table is created on
// the first Open or first operation.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open prepares the videos table. It is idempotent: once it has succeeded,
// later calls return the same handle without touching the schema. A failed
// open is retried on the next call.
func (s *Store) Open(ctx context.Context) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return s, nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&entities.Video{}); err != nil {
		return nil, fmt.Errorf("open video store: %w", err)
	}
	s.opened = true
	return s, nil
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if _, err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s.db.WithContext(ctx), nil
}

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at DESC").Order("rowid ASC")
}

// GetAll returns every video, newest upload first.
func (s *Store) GetAll(ctx context.Context) ([]entities.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	videos := []entities.Video{}
	if err := ordered(db).Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// Get returns one video or database.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*entities.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return first(db, id)
}

func first(db *gorm.DB, id string) (*entities.Video, error) {
	var video entities.Video
	err := db.Where("id = ?", id).First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video %s: %w", id, database.ErrNotFound)
		}
		return nil, err
	}
	return &video, nil
}

// Count returns the number of stored videos.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&entities.Video{}).Count(&count).Error
	return count, err
}

// Add inserts a new video. Fails with database.ErrDuplicateKey if the id is
// already present.
func (s *Store) Add(ctx context.Context, video *entities.Video) (*entities.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	normalize(video)

	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Video{}).Where("id = ?", video.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("video %s: %w", video.ID, database.ErrDuplicateKey)
		}
		return tx.Create(video).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return video, nil
}

// Put inserts or fully replaces a video.
func (s *Store) Put(ctx context.Context, video *entities.Video) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	normalize(video)
	return classify(upsert(db, video))
}

// PutAll upserts many videos in one transaction: either all of them are
// stored or none are.
func (s *Store) PutAll(ctx context.Context, videos []entities.Video) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range videos {
			normalize(&videos[i])
			if err := upsert(tx, &videos[i]); err != nil {
				return fmt.Errorf("put video %s: %w", videos[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return aborted(err)
	}
	return nil
}

func upsert(db *gorm.DB, video *entities.Video) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(video).Error
}

// Update applies fn to one video inside a transaction and stores the result.
func (s *Store) Update(ctx context.Context, id string, fn func(*entities.Video) error) (*entities.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entities.Video
	err = db.Transaction(func(tx *gorm.DB) error {
		video, err := first(tx, id)
		if err != nil {
			return err
		}
		if err := fn(video); err != nil {
			return err
		}
		video.ID = id
		normalize(video)
		if err := tx.Save(video).Error; err != nil {
			return err
		}
		updated = video
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return updated, nil
}

// IncrementViews bumps the view counter without reading the record first.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&entities.Video{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("video %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// Delete removes one video. Returns database.ErrNotFound when nothing was
// deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&entities.Video{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("video %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// Clear removes every video.
func (s *Store) Clear(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Video{}).Error
}

// ReplaceAll swaps the whole catalog for videos in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, videos []entities.Video) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Video{}).Error; err != nil {
			return err
		}
		for i := range videos {
			normalize(&videos[i])
			if err := tx.Create(&videos[i]).Error; err != nil {
				return fmt.Errorf("insert video %s: %w", videos[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return aborted(err)
	}
	return nil
}

// normalize keeps stored timestamps in one zone so that the textual ordering
// SQLite applies matches chronological order.
func normalize(video *entities.Video) {
	video.UploadedAt = video.UploadedAt.UTC()
	if video.Tags == nil {
		video.Tags = []string{}
	}
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrDuplicateKey):
		return err
	case database.IsStorageFull(err):
		return fmt.Errorf("%w: %w", database.ErrQuotaExceeded, err)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", database.ErrDuplicateKey, err)
	default:
		return err
	}
}

func aborted(err error) error {
	if database.IsStorageFull(err) {
		return fmt.Errorf("%w: %w: %w", database.ErrTransactionAborted, database.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", database.ErrTransactionAborted, err)
}
