package seed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lessonstore/internal/entities"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestVideos(t *testing.T) {
	videos, err := Videos(now)
	require.NoError(t, err)
	require.NotEmpty(t, videos)

	seen := make(map[string]bool)
	for _, v := range videos {
		assert.NotEmpty(t, v.ID)
		assert.False(t, seen[v.ID], "duplicate seed id %s", v.ID)
		seen[v.ID] = true

		assert.True(t, v.Subject.Valid(), "subject %q", v.Subject)
		assert.True(t, v.Class.Valid(), "class %q", v.Class)
		assert.True(t, v.Status.Valid(), "status %q", v.Status)
		assert.NotEmpty(t, v.Sources.Data())
		assert.False(t, v.UploadedAt.After(now))
		assert.Equal(t, time.UTC, v.UploadedAt.Location())
	}
}

func TestVideos_FreshCopies(t *testing.T) {
	first, err := Videos(now)
	require.NoError(t, err)
	first[0].Title = "mutated"
	first[0].Tags = append(first[0].Tags, "extra")

	second, err := Videos(now)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second[0].Title)
	assert.False(t, second[0].HasTag("extra"))
}

func TestUsers(t *testing.T) {
	users, err := Users(now, func(p string) (string, error) {
		return "hashed:" + p, nil
	})
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.True(t, users.ShapeOK())

	admins := 0
	for _, u := range users {
		assert.True(t, strings.HasPrefix(u.Password, "hashed:"))
		assert.Equal(t, now, u.CreatedAt)
		assert.True(t, u.Role.Valid())
		if u.Role == entities.UserRoleAdmin {
			admins++
			continue
		}
		assert.True(t, u.Class.Valid(), "students need a class")
	}
	assert.Equal(t, 1, admins)
}

func TestUsers_HashError(t *testing.T) {
	_, err := Users(now, func(string) (string, error) {
		return "", assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
