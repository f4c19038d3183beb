package dataservice

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
)

// Watch state keeps ids of deleted videos. Readers joining against the
// catalog skip ids they no longer find.

func requireIDs(userID, videoID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("%w: video id is required", ErrValidation)
	}
	return nil
}

// completions and progress repair stray entries on read instead of letting
// one bad entry discard the whole value. The repaired form is persisted by
// the next write.

func (s *Service) completions(userID string) (entities.CompletionSet, error) {
	set, err := scalarstore.Get(s.scalar, entities.CompletionsKey(userID), entities.CompletionSet{})
	if err != nil {
		return nil, err
	}
	set, dropped := set.Normalize()
	if dropped > 0 {
		log.Printf("[SCALAR] Dropped %d repeated or blank completion entries for user %s", dropped, userID)
	}
	return set, nil
}

func (s *Service) progress(userID string) (entities.ProgressMap, error) {
	progress, err := scalarstore.Get(s.scalar, entities.ProgressKey(userID), entities.ProgressMap{})
	if err != nil {
		return nil, err
	}
	progress, dropped := progress.Normalize()
	if dropped > 0 {
		log.Printf("[SCALAR] Dropped %d invalid progress entries for user %s", dropped, userID)
	}
	return progress, nil
}

// ToggleCompletion flips videoID in the user's completion set and reports
// whether it is now marked complete. The video does not have to exist.
func (s *Service) ToggleCompletion(userID, videoID string) (bool, error) {
	if err := s.checkReady(); err != nil {
		return false, err
	}
	if err := requireIDs(userID, videoID); err != nil {
		return false, err
	}

	unlock := s.userLanes.lock(userID)
	defer unlock()

	set, err := s.completions(userID)
	if err != nil {
		return false, err
	}
	set, completed := set.Toggle(videoID)
	if err := s.scalar.Set(entities.CompletionsKey(userID), set); err != nil {
		return false, err
	}
	return completed, nil
}

// CompletedVideoIDs returns the user's completion set in the order entries
// were added.
func (s *Service) CompletedVideoIDs(userID string) ([]string, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	set, err := s.completions(userID)
	if err != nil {
		return nil, err
	}
	return []string(set), nil
}

// RecordProgress stores how far the user got through a video, replacing any
// earlier entry. Elapsed may exceed duration on replays and is kept as is.
func (s *Service) RecordProgress(userID, videoID string, elapsed, duration float64) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := requireIDs(userID, videoID); err != nil {
		return err
	}
	if math.IsNaN(elapsed) || math.IsInf(elapsed, 0) || elapsed < 0 {
		return fmt.Errorf("%w: elapsed must be a non-negative number", ErrValidation)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return fmt.Errorf("%w: duration must be a non-negative number", ErrValidation)
	}

	unlock := s.userLanes.lock(userID)
	defer unlock()

	progress, err := s.progress(userID)
	if err != nil {
		return err
	}
	progress[videoID] = entities.Progress{Progress: elapsed, Duration: duration}
	return s.scalar.Set(entities.ProgressKey(userID), progress)
}

// Progress returns the user's whole progress map.
func (s *Service) Progress(userID string) (entities.ProgressMap, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.progress(userID)
}

// VideoProgress returns progress for one video and whether any was recorded.
func (s *Service) VideoProgress(userID, videoID string) (entities.Progress, bool, error) {
	if err := s.checkReady(); err != nil {
		return entities.Progress{}, false, err
	}
	progress, err := s.progress(userID)
	if err != nil {
		return entities.Progress{}, false, err
	}
	p, ok := progress[videoID]
	return p, ok, nil
}

// clearWatchState drops both watch-state keys of a deleted user.
func (s *Service) clearWatchState(userID string) error {
	unlock := s.userLanes.lock(userID)
	defer unlock()

	if err := s.scalar.Remove(entities.CompletionsKey(userID)); err != nil {
		return err
	}
	return s.scalar.Remove(entities.ProgressKey(userID))
}
