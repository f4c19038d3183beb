package dataservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mrlokans/lessonstore/internal/database/videos"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// Reset triggers recorded in the audit trail.
const (
	ResetTriggerManual   = "manual"
	ResetTriggerSchedule = "schedule"
)

// VideoView is a catalog record as seen by one user. Completed is derived
// from the user's completion set at read time and never stored.
type VideoView struct {
	entities.Video
	Completed bool `json:"completed"`
}

// VideoInput describes a new upload. Status defaults to published and
// UploadedAt to now.
type VideoInput struct {
	Title       string
	Description string
	Subject     entities.Subject
	Class       entities.ClassLevel
	Duration    string
	Status      entities.VideoStatus
	Thumbnail   string
	Sources     map[string]string
	Tags        []string
	UploadedAt  time.Time
}

func (in VideoInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !in.Subject.Valid() {
		return fmt.Errorf("%w: unknown subject %q", ErrValidation, in.Subject)
	}
	if !in.Class.Valid() {
		return fmt.Errorf("%w: unknown class %q", ErrValidation, in.Class)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	return nil
}

// VideoPatch changes the fields that are set. Nil Sources or Tags leave them
// untouched; an empty non-nil value clears them.
type VideoPatch struct {
	Title       *string
	Description *string
	Subject     *entities.Subject
	Class       *entities.ClassLevel
	Duration    *string
	Status      *entities.VideoStatus
	Thumbnail   *string
	Sources     map[string]string
	Tags        []string
	UploadedAt  *time.Time
}

func (p VideoPatch) apply(v *entities.Video) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Subject != nil {
		if !p.Subject.Valid() {
			return fmt.Errorf("%w: unknown subject %q", ErrValidation, *p.Subject)
		}
		v.Subject = *p.Subject
	}
	if p.Class != nil {
		if !p.Class.Valid() {
			return fmt.Errorf("%w: unknown class %q", ErrValidation, *p.Class)
		}
		v.Class = *p.Class
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		v.Status = *p.Status
	}
	if p.Thumbnail != nil {
		v.Thumbnail = *p.Thumbnail
	}
	if p.Sources != nil {
		v.Sources = datatypes.NewJSONType(copySources(p.Sources))
	}
	if p.Tags != nil {
		v.Tags = videos.CleanTags(p.Tags)
	}
	if p.UploadedAt != nil {
		v.UploadedAt = *p.UploadedAt
	}
	return nil
}

func copySources(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ListVideos returns the catalog newest first. With a userID each entry's
// Completed flag reflects that user's completion set.
func (s *Service) ListVideos(ctx context.Context, userID string) ([]VideoView, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	all, err := s.videos.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	done, err := s.completionLookup(userID)
	if err != nil {
		return nil, err
	}

	views := make([]VideoView, len(all))
	for i, v := range all {
		_, completed := done[v.ID]
		views[i] = VideoView{Video: v, Completed: completed}
	}
	return views, nil
}

// GetVideo returns one video as seen by userID (which may be empty).
func (s *Service) GetVideo(ctx context.Context, id, userID string) (*VideoView, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	video, err := s.videos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	done, err := s.completionLookup(userID)
	if err != nil {
		return nil, err
	}
	_, completed := done[id]
	return &VideoView{Video: *video, Completed: completed}, nil
}

func (s *Service) completionLookup(userID string) (map[string]struct{}, error) {
	if userID == "" {
		return nil, nil
	}
	set, err := s.completions(userID)
	if err != nil {
		return nil, err
	}
	return set.Lookup(), nil
}

// AddVideo validates the input, assigns a fresh id and stores the video.
func (s *Service) AddVideo(ctx context.Context, in VideoInput) (*entities.Video, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	video := &entities.Video{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Subject:     in.Subject,
		Class:       in.Class,
		Duration:    in.Duration,
		Status:      in.Status,
		Thumbnail:   in.Thumbnail,
		Sources:     datatypes.NewJSONType(copySources(in.Sources)),
		Tags:        videos.CleanTags(in.Tags),
		UploadedAt:  in.UploadedAt,
	}
	if video.Status == "" {
		video.Status = entities.VideoStatusPublished
	}
	if video.UploadedAt.IsZero() {
		video.UploadedAt = s.now()
	}
	return s.videos.Add(ctx, video)
}

// UpdateVideo applies patch to the stored video. The id never changes.
func (s *Service) UpdateVideo(ctx context.Context, id string, patch VideoPatch) (*entities.Video, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.videos.Update(ctx, id, patch.apply)
}

// DeleteVideo removes one video. Watch state referring to it is kept.
func (s *Service) DeleteVideo(ctx context.Context, id string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.LogDelete("video", []string{id})
	return nil
}

// DeleteVideos removes every listed video that exists, atomically. Ids not in
// the catalog are reported in the result and otherwise ignored.
func (s *Service) DeleteVideos(ctx context.Context, ids []string) (videos.BatchResult, error) {
	if err := s.checkReady(); err != nil {
		return videos.BatchResult{}, err
	}
	result, err := s.videos.DeleteMany(ctx, ids)
	if err != nil {
		return result, err
	}
	if len(result.Deleted) > 0 {
		s.audit.LogDelete("video", result.Deleted)
	}
	return result, nil
}

// SetVideosStatus sets status on every listed video that exists, atomically.
func (s *Service) SetVideosStatus(ctx context.Context, ids []string, status entities.VideoStatus) (videos.BatchResult, error) {
	if err := s.checkReady(); err != nil {
		return videos.BatchResult{}, err
	}
	if !status.Valid() {
		return videos.BatchResult{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.videos.SetStatus(ctx, ids, status)
}

// AddTagsToVideos merges tags into every listed video that exists,
// atomically.
func (s *Service) AddTagsToVideos(ctx context.Context, ids []string, tags []string) (videos.BatchResult, error) {
	if err := s.checkReady(); err != nil {
		return videos.BatchResult{}, err
	}
	if len(videos.CleanTags(tags)) == 0 {
		return videos.BatchResult{}, fmt.Errorf("%w: no tags given", ErrValidation)
	}
	return s.videos.AddTags(ctx, ids, tags)
}

// IncrementViews bumps a video's view counter by one.
func (s *Service) IncrementViews(ctx context.Context, id string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	return s.videos.IncrementViews(ctx, id)
}

// ResetVideos clears the catalog and writes the fixed initial dataset.
func (s *Service) ResetVideos(ctx context.Context) (int, error) {
	return s.ResetVideosFrom(ctx, ResetTriggerManual)
}

// ResetVideosFrom is ResetVideos with the trigger recorded in the audit trail.
func (s *Service) ResetVideosFrom(ctx context.Context, trigger string) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}
	seeded, err := s.migrator.Reseed(ctx)
	s.audit.LogCatalogReset(trigger, seeded, err)
	return seeded, err
}

// SweepLegacy re-runs the catalog migration, moving any data that appeared
// under the legacy key since startup. It returns how many records moved.
func (s *Service) SweepLegacy(ctx context.Context) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}
	result, err := s.migrator.Run(ctx)
	return result.Migrated, err
}

// ImportLegacy stages raw, a legacy catalog export, under the legacy key and
// sweeps it into the record store. Records whose id already exists overwrite
// it. It returns how many records moved.
func (s *Service) ImportLegacy(ctx context.Context, raw string) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}
	if err := s.scalar.SetRaw(entities.KVKeyLegacyVideos, raw); err != nil {
		return 0, fmt.Errorf("stage legacy catalog: %w", err)
	}
	result, err := s.migrator.Run(ctx)
	return result.Migrated, err
}
