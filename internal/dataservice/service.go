// Package dataservice is the single entry point to the data layer. It routes
// user, completion and progress operations to the scalar store and catalog
// operations to the record store, and refuses everything until Initialize has
// run.
//
// # Usage
//
//	svc := dataservice.New(scalar, videoStore, dataservice.WithAudit(auditSvc))
//	if err := svc.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	list, err := svc.ListVideos(ctx, userID)
//
// # Concurrency
//
// Read-modify-write sequences on one user's completion set or progress map
// run one at a time through a per-user lane. Writes to the user table share a
// single lane. Catalog batches rely on SQLite transactions. Separate catalog
// updates to the same video are last-writer-wins.
package dataservice

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrlokans/lessonstore/internal/audit"
	"github.com/mrlokans/lessonstore/internal/auth"
	"github.com/mrlokans/lessonstore/internal/database/videos"
	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/migration"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
	"github.com/mrlokans/lessonstore/internal/seed"
)

// Service is the data layer facade.
type Service struct {
	scalar    *scalarstore.Store
	videos    *videos.Store
	migrator  *migration.Manager
	passwords *auth.Passwords
	audit     *audit.Service
	now       func() time.Time

	initMu sync.Mutex
	ready  atomic.Bool

	userLanes lanes
	usersMu   sync.Mutex

	decoyOnce sync.Once
	decoyHash string
}

type Option func(*Service)

// WithAudit records migrations, resets, deletions and account changes.
func WithAudit(svc *audit.Service) Option {
	return func(s *Service) {
		s.audit = svc
	}
}

// WithPasswords sets the password policy. Defaults to bcrypt.DefaultCost and
// auth.DefaultMinPasswordLength.
func WithPasswords(p *auth.Passwords) Option {
	return func(s *Service) {
		s.passwords = p
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New builds the facade over an opened-or-unopened record store and a scalar
// store. Nothing touches storage until Initialize.
func New(scalar *scalarstore.Store, store *videos.Store, opts ...Option) *Service {
	s := &Service{
		scalar:    scalar,
		videos:    store,
		passwords: auth.NewPasswords(0, 0),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.migrator = migration.NewManager(scalar, store, s.audit, migration.WithClock(s.now))
	return s
}

// Initialize opens the record store, runs the catalog migration and seeds the
// user table when it is absent. Migration failures are logged and leave an
// empty but usable catalog. Calling Initialize again after it succeeded is a
// no-op.
func (s *Service) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.ready.Load() {
		return nil
	}

	if _, err := s.videos.Open(ctx); err != nil {
		return err
	}

	result, err := s.migrator.Run(ctx)
	if err != nil {
		log.Printf("[MIGRATION] Catalog migration failed, continuing with current catalog: %v", err)
	} else {
		log.Printf("[MIGRATION] Catalog state: %s (migrated %d, seeded %d)", result.State, result.Migrated, result.Seeded)
	}

	if err := s.seedUsers(); err != nil {
		return err
	}

	s.ready.Store(true)
	return nil
}

func (s *Service) seedUsers() error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	has, err := s.scalar.Has(entities.KVKeyUsers)
	if err != nil {
		return fmt.Errorf("check user table: %w", err)
	}
	if has {
		return nil
	}

	users, err := seed.Users(s.now(), s.passwords.HashUnchecked)
	if err != nil {
		return err
	}
	if err := s.scalar.Set(entities.KVKeyUsers, users); err != nil {
		return fmt.Errorf("seed user table: %w", err)
	}
	log.Printf("Seeded user table with %d accounts", len(users))
	return nil
}

// Ready reports whether Initialize has completed.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

func (s *Service) checkReady() error {
	if !s.ready.Load() {
		return ErrUninitialized
	}
	return nil
}

// MigrationState returns the persisted catalog migration state.
func (s *Service) MigrationState() (migration.State, error) {
	if err := s.checkReady(); err != nil {
		return migration.StateUnchecked, err
	}
	return s.migrator.State()
}

// Stats summarizes what the data layer holds.
type Stats struct {
	Videos         int64
	Users          int
	ScalarBytes    int64
	MigrationState migration.State
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkReady(); err != nil {
		return Stats{}, err
	}
	count, err := s.videos.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	users, err := s.loadUsers()
	if err != nil {
		return Stats{}, err
	}
	usage, err := s.scalar.Usage()
	if err != nil {
		return Stats{}, err
	}
	state, err := s.migrator.State()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Videos: count, Users: len(users), ScalarBytes: usage, MigrationState: state}, nil
}

// lanes hands out one mutex per key. Entries live as long as the service, one
// per user seen.
type lanes struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *lanes) lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lane, ok := l.locks[key]
	if !ok {
		lane = &sync.Mutex{}
		l.locks[key] = lane
	}
	l.mu.Unlock()

	lane.Lock()
	return lane.Unlock
}
