package scalarstore

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lessonstore/internal/database"
	"github.com/mrlokans/lessonstore/internal/database/kv"
	"github.com/mrlokans/lessonstore/internal/entities"
)

func setupTestStore(t *testing.T, opts ...Option) (*Store, *kv.Repository) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "scalar.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := kv.NewRepository(db.DB)
	return New(repo, opts...), repo
}

func TestGet_MissingKeyReturnsDefaultWithoutWriting(t *testing.T) {
	store, _ := setupTestStore(t)

	got, err := Get(store, entities.CompletionsKey("u1"), entities.CompletionSet{})
	require.NoError(t, err)
	assert.Empty(t, got)

	has, err := store.Has(entities.CompletionsKey("u1"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSetThenGet(t *testing.T) {
	store, _ := setupTestStore(t)

	progress := entities.ProgressMap{"v1": {Progress: 30, Duration: 120}}
	require.NoError(t, store.Set(entities.ProgressKey("u1"), progress))

	got, err := Get(store, entities.ProgressKey("u1"), entities.ProgressMap{})
	require.NoError(t, err)
	assert.Equal(t, progress, got)
}

func TestGet_SelfHeals(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "object where list expected", raw: `{"not":"a list"}`},
		{name: "null", raw: `null`},
		{name: "empty", raw: ``},
		{name: "truncated json", raw: `["v1",`},
		{name: "number", raw: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo := setupTestStore(t)
			key := entities.CompletionsKey("u1")
			require.NoError(t, repo.Set(key, tt.raw))

			got, err := Get(store, key, entities.CompletionSet{})
			require.NoError(t, err)
			assert.Empty(t, got)

			entry, err := repo.Get(key)
			require.NoError(t, err)
			assert.Equal(t, `[]`, entry.Value)
		})
	}
}

func TestGet_SelfHealsUserTable(t *testing.T) {
	store, repo := setupTestStore(t)
	require.NoError(t, repo.Set(entities.KVKeyUsers, `[{"name":"no id or email"}]`))

	got, err := Get(store, entities.KVKeyUsers, entities.UserTable{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_FailPolicy(t *testing.T) {
	store, repo := setupTestStore(t, WithPolicy(FailOnShapeMismatch))
	key := entities.CompletionsKey("u1")
	require.NoError(t, repo.Set(key, `{"bad":true}`))

	_, err := Get(store, key, entities.CompletionSet{})
	assert.ErrorIs(t, err, database.ErrCorruptData)

	entry, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, `{"bad":true}`, entry.Value, "fail policy must not overwrite")
}

func TestSet_Quota(t *testing.T) {
	store, _ := setupTestStore(t, WithQuota(64))

	require.NoError(t, store.Set("a", strings.Repeat("x", 30)))

	err := store.Set("b", strings.Repeat("y", 40))
	assert.ErrorIs(t, err, database.ErrQuotaExceeded)

	has, err := store.Has("b")
	require.NoError(t, err)
	assert.False(t, has)

	// Overwriting a key is measured against its replacement, not in addition.
	require.NoError(t, store.Set("a", strings.Repeat("z", 50)))
}

func TestSet_QuotaDisabled(t *testing.T) {
	store, _ := setupTestStore(t, WithQuota(0))
	require.NoError(t, store.Set("big", strings.Repeat("x", 10_000)))

	usage, err := store.Usage()
	require.NoError(t, err)
	assert.Greater(t, usage, int64(10_000))
}

func TestRemove(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Set("k", []string{"a"}))

	require.NoError(t, store.Remove("k"))
	require.NoError(t, store.Remove("k"))

	has, err := store.Has("k")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKeys(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Set(entities.CompletionsKey("b"), []string{}))
	require.NoError(t, store.Set(entities.CompletionsKey("a"), []string{}))
	require.NoError(t, store.Set(entities.ProgressKey("a"), map[string]any{}))

	keys, err := store.Keys("completions:")
	require.NoError(t, err)
	assert.Equal(t, []string{"completions:a", "completions:b"}, keys)
}

func TestRecoveryPolicy_String(t *testing.T) {
	assert.Equal(t, "reset_on_shape_mismatch", ResetOnShapeMismatch.String())
	assert.Equal(t, "fail_on_shape_mismatch", FailOnShapeMismatch.String())
}
