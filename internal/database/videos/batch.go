package videos

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/lessonstore/internal/entities"
)

// BatchOp tells RunBatch what to do with a record after mutation.
type BatchOp int

const (
	BatchSkip BatchOp = iota
	BatchPut
	BatchDelete
)

// Mutator transforms one fetched record in place. Returning an error aborts
// the whole batch.
type Mutator func(video *entities.Video) (BatchOp, error)

// BatchResult lists what a committed batch did. Missing holds requested ids
// that were not in the catalog; they are ignored rather than failing the
// batch.
type BatchResult struct {
	Updated []string
	Deleted []string
	Missing []string
}

// RunBatch fetches every id, applies mutate to each present record and
// commits all writes in a single transaction. On any failure nothing from the
// batch is visible and the error wraps database.ErrTransactionAborted.
func (s *Store) RunBatch(ctx context.Context, ids []string, mutate Mutator) (BatchResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var found []entities.Video
		if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
			return err
		}
		byID := make(map[string]*entities.Video, len(found))
		for i := range found {
			byID[found[i].ID] = &found[i]
		}

		for _, id := range ids {
			video, ok := byID[id]
			if !ok {
				result.Missing = append(result.Missing, id)
				continue
			}

			op, err := mutate(video)
			if err != nil {
				return fmt.Errorf("mutate video %s: %w", id, err)
			}

			switch op {
			case BatchPut:
				video.ID = id
				normalize(video)
				if err := tx.Save(video).Error; err != nil {
					return fmt.Errorf("save video %s: %w", id, err)
				}
				result.Updated = append(result.Updated, id)
			case BatchDelete:
				if err := tx.Where("id = ?", id).Delete(&entities.Video{}).Error; err != nil {
					return fmt.Errorf("delete video %s: %w", id, err)
				}
				result.Deleted = append(result.Deleted, id)
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, aborted(err)
	}
	return result, nil
}

// DeleteMany removes every listed video that exists, atomically.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (BatchResult, error) {
	return s.RunBatch(ctx, ids, func(*entities.Video) (BatchOp, error) {
		return BatchDelete, nil
	})
}

// SetStatus sets status on every listed video that exists, atomically.
func (s *Store) SetStatus(ctx context.Context, ids []string, status entities.VideoStatus) (BatchResult, error) {
	if !status.Valid() {
		return BatchResult{}, fmt.Errorf("invalid video status %q", status)
	}
	return s.RunBatch(ctx, ids, func(video *entities.Video) (BatchOp, error) {
		video.Status = status
		return BatchPut, nil
	})
}

// AddTags merges tags into every listed video's tag set, atomically. Existing
// tags and their order are kept; blanks and duplicates are dropped.
func (s *Store) AddTags(ctx context.Context, ids []string, tags []string) (BatchResult, error) {
	clean := CleanTags(tags)
	return s.RunBatch(ctx, ids, func(video *entities.Video) (BatchOp, error) {
		if !video.MergeTags(clean) {
			return BatchSkip, nil
		}
		return BatchPut, nil
	})
}

// CleanTags trims tags and removes blanks and repeats, keeping first
// occurrence order.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
