// Package migration moves the video catalog out of the legacy key/value
// representation and into the record store, or seeds it on first start.
//
// The run is a one-shot state machine:
//
//	Unchecked -> Migrated   legacy records were moved into the record store
//	Unchecked -> Seeded     nothing to move, the fixed dataset was written
//
// The terminal state is persisted under the scalar key "migration:videos".
// Once it is set an empty catalog is never re-seeded, though a legacy sweep
// still runs on every start as a safety net for interrupted earlier runs.
package migration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/lessonstore/internal/audit"
	"github.com/mrlokans/lessonstore/internal/database/videos"
	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
	"github.com/mrlokans/lessonstore/internal/seed"
)

type State string

const (
	StateUnchecked State = "Unchecked"
	StateMigrated  State = "Migrated"
	StateSeeded    State = "Seeded"
)

func (s State) Terminal() bool {
	return s == StateMigrated || s == StateSeeded
}

// Marker is the persisted migration outcome.
type Marker struct {
	State  State     `json:"state"`
	At     time.Time `json:"at"`
	Videos int       `json:"videos"`
}

func (m Marker) ShapeOK() bool {
	return m.State == StateUnchecked || m.State.Terminal()
}

// Result describes what a run did.
type Result struct {
	// State is the state after the run.
	State State
	// Migrated counts legacy records written to the record store.
	Migrated int
	// Seeded counts seed records written to the record store.
	Seeded int
}

// Manager runs the catalog migration.
type Manager struct {
	scalar *scalarstore.Store
	videos *videos.Store
	audit  *audit.Service
	now    func() time.Time
}

type Option func(*Manager)

// WithClock overrides time.Now, used for upload dates of seeded and
// normalized records.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a migration manager. auditSvc may be nil.
func NewManager(scalar *scalarstore.Store, store *videos.Store, auditSvc *audit.Service, opts ...Option) *Manager {
	m := &Manager{
		scalar: scalar,
		videos: store,
		audit:  auditSvc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the persisted migration state.
func (m *Manager) State() (State, error) {
	marker, err := m.marker()
	if err != nil {
		return StateUnchecked, err
	}
	return marker.State, nil
}

func (m *Manager) marker() (Marker, error) {
	marker, err := scalarstore.Get(m.scalar, entities.KVKeyMigrationMark, Marker{State: StateUnchecked})
	if err != nil {
		return Marker{State: StateUnchecked}, fmt.Errorf("read migration marker: %w", err)
	}
	return marker, nil
}

func (m *Manager) mark(state State, count int) error {
	marker := Marker{State: state, At: m.now().UTC(), Videos: count}
	if err := m.scalar.Set(entities.KVKeyMigrationMark, marker); err != nil {
		return fmt.Errorf("write migration marker: %w", err)
	}
	return nil
}

// Run performs the startup migration. It is safe to call on every start:
// after the first successful run it only sweeps the legacy key.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	marker, err := m.marker()
	if err != nil {
		return Result{State: StateUnchecked}, err
	}
	count, err := m.videos.Count(ctx)
	if err != nil {
		return Result{State: marker.State}, fmt.Errorf("count videos: %w", err)
	}

	if count > 0 || marker.State.Terminal() {
		return m.sweepOnly(ctx, marker, count)
	}

	legacy, err := m.readLegacy()
	if err != nil {
		return Result{State: StateUnchecked}, err
	}
	if len(legacy) > 0 {
		moved, err := m.moveLegacy(ctx, legacy)
		if err != nil {
			m.audit.LogMigration(string(StateMigrated), 0, err)
			return Result{State: StateUnchecked}, err
		}
		// Records are committed; the legacy copy must go before the marker so
		// a crash in between is finished by the next sweep, not replayed.
		if err := m.scalar.Remove(entities.KVKeyLegacyVideos); err != nil {
			return Result{State: StateUnchecked, Migrated: moved}, fmt.Errorf("remove legacy key: %w", err)
		}
		if err := m.mark(StateMigrated, moved); err != nil {
			return Result{State: StateUnchecked, Migrated: moved}, err
		}
		log.Printf("[MIGRATION] Moved %d legacy videos into the record store", moved)
		m.audit.LogMigration(string(StateMigrated), moved, nil)
		return Result{State: StateMigrated, Migrated: moved}, nil
	}

	// An empty or corrupt legacy key carries nothing worth keeping.
	if err := m.scalar.Remove(entities.KVKeyLegacyVideos); err != nil {
		return Result{State: StateUnchecked}, fmt.Errorf("remove legacy key: %w", err)
	}
	seeded, err := m.Reseed(ctx)
	if err != nil {
		m.audit.LogMigration(string(StateSeeded), 0, err)
		return Result{State: StateUnchecked}, err
	}
	log.Printf("[MIGRATION] Seeded record store with %d videos", seeded)
	m.audit.LogMigration(string(StateSeeded), seeded, nil)
	return Result{State: StateSeeded, Seeded: seeded}, nil
}

// sweepOnly handles a store that already owns its catalog. A store that was
// populated before markers existed is recorded as migrated so that emptying
// it later never triggers a re-seed.
func (m *Manager) sweepOnly(ctx context.Context, marker Marker, count int64) (Result, error) {
	moved, err := m.Sweep(ctx)
	result := Result{State: marker.State, Migrated: moved}
	if err != nil {
		return result, err
	}

	switch {
	case moved > 0:
		if err := m.mark(StateMigrated, moved); err != nil {
			return result, err
		}
		log.Printf("[MIGRATION] Legacy sweep moved %d videos", moved)
		m.audit.LogMigration(string(StateMigrated), moved, nil)
		result.State = StateMigrated
	case !marker.State.Terminal():
		if err := m.mark(StateMigrated, int(count)); err != nil {
			return result, err
		}
		log.Printf("[MIGRATION] Record store already holds %d videos, marked as migrated", count)
		m.audit.LogMigration(string(StateMigrated), 0, nil)
		result.State = StateMigrated
	}
	return result, nil
}

// Sweep moves any records found under the legacy key into the record store
// and removes the key. It returns how many records were moved.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	has, err := m.scalar.Has(entities.KVKeyLegacyVideos)
	if err != nil {
		return 0, fmt.Errorf("check legacy key: %w", err)
	}
	if !has {
		return 0, nil
	}

	legacy, err := m.readLegacy()
	if err != nil {
		return 0, err
	}
	moved := 0
	if len(legacy) > 0 {
		if moved, err = m.moveLegacy(ctx, legacy); err != nil {
			return 0, err
		}
	}
	if err := m.scalar.Remove(entities.KVKeyLegacyVideos); err != nil {
		return moved, fmt.Errorf("remove legacy key: %w", err)
	}
	return moved, nil
}

func (m *Manager) readLegacy() (legacyCatalog, error) {
	legacy, err := scalarstore.Get(m.scalar, entities.KVKeyLegacyVideos, legacyCatalog{})
	if err != nil {
		return nil, fmt.Errorf("read legacy videos: %w", err)
	}
	return legacy, nil
}

// moveLegacy upserts legacy records in one transaction. The legacy key is
// left in place; callers remove it only after this commits.
func (m *Manager) moveLegacy(ctx context.Context, legacy legacyCatalog) (int, error) {
	records := legacy.normalize(m.now())
	if err := m.videos.PutAll(ctx, records); err != nil {
		return 0, fmt.Errorf("move legacy videos: %w", err)
	}
	return len(records), nil
}

// Reseed replaces the whole catalog with the fixed dataset and records the
// Seeded state. Watch state is untouched.
func (m *Manager) Reseed(ctx context.Context) (int, error) {
	records, err := seed.Videos(m.now())
	if err != nil {
		return 0, err
	}
	if err := m.videos.ReplaceAll(ctx, records); err != nil {
		return 0, fmt.Errorf("seed videos: %w", err)
	}
	if err := m.mark(StateSeeded, len(records)); err != nil {
		return len(records), err
	}
	return len(records), nil
}
