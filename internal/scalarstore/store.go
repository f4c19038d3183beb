// Package scalarstore is the synchronous key/value store for whole JSON
// values: the user table, per-user completion sets and progress maps, and the
// legacy video list awaiting migration.
//
// Reads recover from corrupted values instead of failing. See RecoveryPolicy.
package scalarstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/lessonstore/internal/database"
	"github.com/mrlokans/lessonstore/internal/database/kv"
)

// DefaultQuotaBytes mirrors the per-origin limit browsers give local storage.
const DefaultQuotaBytes int64 = 5 * 1024 * 1024

// RecoveryPolicy decides what a read does with a value that cannot be decoded
// into the requested shape.
type RecoveryPolicy int

const (
	// ResetOnShapeMismatch discards the stored value, persists the caller's
	// default in its place and returns the default.
	ResetOnShapeMismatch RecoveryPolicy = iota
	// FailOnShapeMismatch leaves the stored value alone and returns
	// database.ErrCorruptData.
	FailOnShapeMismatch
)

func (p RecoveryPolicy) String() string {
	switch p {
	case ResetOnShapeMismatch:
		return "reset_on_shape_mismatch"
	case FailOnShapeMismatch:
		return "fail_on_shape_mismatch"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ShapeChecker lets a decoded type reject values that are valid JSON of the
// right kind but still malformed.
type ShapeChecker interface {
	ShapeOK() bool
}

var errNullValue = errors.New("stored value is null")
var errBadShape = errors.New("stored value failed shape check")

// Store provides typed access to scalar entries.
type Store struct {
	repo   *kv.Repository
	quota  int64
	policy RecoveryPolicy
}

type Option func(*Store)

// WithQuota caps the total bytes of stored values. Zero or less disables the
// cap.
func WithQuota(bytes int64) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// WithPolicy overrides the default ResetOnShapeMismatch policy.
func WithPolicy(policy RecoveryPolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

func New(repo *kv.Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		quota:  DefaultQuotaBytes,
		policy: ResetOnShapeMismatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active recovery policy.
func (s *Store) Policy() RecoveryPolicy {
	return s.policy
}

// Get decodes the value under key into T. A missing key yields def without
// writing anything. A value that fails to decode is handled per the store's
// RecoveryPolicy. Errors are returned only for storage failures (and for
// corruption under FailOnShapeMismatch).
//
// def must not encode to JSON null (use an empty slice or map), otherwise the
// persisted default would itself read back as corrupt.
func Get[T any](s *Store, key string, def T) (T, error) {
	entry, err := s.repo.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("read %q: %w", key, err)
	}

	var value T
	if derr := decode(entry.Value, &value); derr != nil {
		return recoverValue(s, key, def, derr)
	}
	return value, nil
}

func decode[T any](raw string, dest *T) error {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errNullValue
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return err
	}
	if checker, ok := any(*dest).(ShapeChecker); ok && !checker.ShapeOK() {
		return errBadShape
	}
	return nil
}

func recoverValue[T any](s *Store, key string, def T, cause error) (T, error) {
	if s.policy == FailOnShapeMismatch {
		return def, fmt.Errorf("read %q: %w: %v", key, database.ErrCorruptData, cause)
	}

	log.Printf("[SCALAR] Discarding corrupt value under %q (%v), resetting to default", key, cause)
	if err := s.Set(key, def); err != nil {
		log.Printf("[SCALAR] Failed to persist default for %q: %v", key, err)
	}
	return def, nil
}

// Set encodes value as JSON and stores it under key. Fails with
// database.ErrQuotaExceeded when the write would exceed the quota or the
// medium is full.
func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.write(key, string(data))
}

// SetRaw stores an already-encoded value verbatim. Used when importing legacy
// exports, whose shape is checked on first read.
func (s *Store) SetRaw(key, raw string) error {
	return s.write(key, raw)
}

func (s *Store) write(key, raw string) error {
	if s.quota > 0 {
		used, err := s.repo.TotalSize(key)
		if err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if used+int64(len(raw)) > s.quota {
			return fmt.Errorf("write %q (%d bytes, %d in use, quota %d): %w",
				key, len(raw), used, s.quota, database.ErrQuotaExceeded)
		}
	}
	if err := s.repo.Set(key, raw); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if err := s.repo.Delete(key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Has reports whether key holds any value, corrupt or not.
func (s *Store) Has(key string) (bool, error) {
	return s.repo.Has(key)
}

// Keys lists keys starting with prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	return s.repo.Keys(prefix)
}

// Usage returns the total bytes currently stored.
func (s *Store) Usage() (int64, error) {
	return s.repo.TotalSize("")
}
