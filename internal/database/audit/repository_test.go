package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lessonstore/internal/database"
	"github.com/mrlokans/lessonstore/internal/entities"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "audit.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func event(kind entities.AuditEventType, action, user string, age time.Duration) *entities.AuditEvent {
	e := &entities.AuditEvent{
		UserID:    user,
		EventType: kind,
		Action:    action,
		Status:    entities.AuditStatusSuccess,
	}
	if age > 0 {
		e.CreatedAt = time.Now().Add(-age)
	}
	return e
}

func TestRepository_AppendStampsTime(t *testing.T) {
	repo := newTestRepo(t)

	e := event(entities.AuditEventMigration, "catalog_migrated", "", 0)
	require.NoError(t, repo.Append(e))

	assert.NotZero(t, e.ID)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
}

func TestRepository_List(t *testing.T) {
	repo := newTestRepo(t)

	// Twelve status changes by one admin, hourly, then three resets.
	for i := 1; i <= 12; i++ {
		e := event(entities.AuditEventUser, "user_disabled", "admin-1", time.Duration(i)*time.Hour)
		e.EntityID = "u7"
		require.NoError(t, repo.Append(e))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(event(entities.AuditEventCatalog, "videos_reset", "", 0)))
	}

	tests := []struct {
		name    string
		filter  Filter
		limit   int
		wantLen int
	}{
		{"everyone, default limit", Filter{}, 0, 15},
		{"one user, limited", Filter{UserID: "admin-1"}, 5, 5},
		{"by type", Filter{EventType: entities.AuditEventCatalog}, 10, 3},
		{"by entity", Filter{EntityID: "u7"}, 20, 12},
		{"since", Filter{UserID: "admin-1", Since: time.Now().Add(-150 * time.Minute)}, 20, 2},
		{"type and user disagree", Filter{UserID: "admin-1", EventType: entities.AuditEventCatalog}, 10, 0},
		{"unknown user", Filter{UserID: "nobody"}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.List(tt.filter, tt.limit)
			require.NoError(t, err)
			assert.Len(t, events, tt.wantLen)
			for i := 1; i < len(events); i++ {
				assert.False(t, events[i].CreatedAt.After(events[i-1].CreatedAt), "newest first")
			}
		})
	}
}

func TestRepository_CountByType(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(event(entities.AuditEventDelete, "video_delete", "", 0)))
	require.NoError(t, repo.Append(event(entities.AuditEventCatalog, "videos_reset", "", 48*time.Hour)))
	require.NoError(t, repo.Append(event(entities.AuditEventCatalog, "videos_reset", "", time.Hour)))
	require.NoError(t, repo.Append(event(entities.AuditEventUser, "user_active", "u1", 0)))

	counts, err := repo.CountByType(Filter{})
	require.NoError(t, err)
	assert.Equal(t, []TypeCount{
		{EventType: entities.AuditEventCatalog, Count: 2},
		{EventType: entities.AuditEventDelete, Count: 1},
		{EventType: entities.AuditEventUser, Count: 1},
	}, counts)

	recent, err := repo.CountByType(Filter{Since: time.Now().Add(-24 * time.Hour), EventType: entities.AuditEventCatalog})
	require.NoError(t, err)
	assert.Equal(t, []TypeCount{{EventType: entities.AuditEventCatalog, Count: 1}}, recent)

	none, err := repo.CountByType(Filter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_PruneBefore(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(event(entities.AuditEventUser, "user_disabled", "u1", 72*time.Hour)))
	require.NoError(t, repo.Append(event(entities.AuditEventUser, "user_active", "u1", 48*time.Hour)))
	require.NoError(t, repo.Append(event(entities.AuditEventUser, "user_disabled", "u1", 0)))

	deleted, err := repo.PruneBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := repo.List(Filter{UserID: "u1"}, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "user_disabled", left[0].Action)
}
