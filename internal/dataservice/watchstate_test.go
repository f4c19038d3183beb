package dataservice

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
)

func TestService_ToggleCompletion(t *testing.T) {
	svc := setupTestService(t)

	completed, err := svc.ToggleCompletion("u1", "v1")
	require.NoError(t, err)
	assert.True(t, completed)

	completed, err = svc.ToggleCompletion("u1", "v2")
	require.NoError(t, err)
	assert.True(t, completed)

	completed, err = svc.ToggleCompletion("u1", "v1")
	require.NoError(t, err)
	assert.False(t, completed)

	ids, err := svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, ids)

	other, err := svc.CompletedVideoIDs("u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = svc.ToggleCompletion("", "v1")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.ToggleCompletion("u1", " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ConcurrentTogglesSameUser(t *testing.T) {
	svc := setupTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ToggleCompletion("u1", fmt.Sprintf("v%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Len(t, ids, 30, "no toggle lost to an interleaved write")
}

func TestService_RecordProgress(t *testing.T) {
	svc := setupTestService(t)

	require.NoError(t, svc.RecordProgress("u1", "v1", 30, 120))
	require.NoError(t, svc.RecordProgress("u1", "v2", 5, 60))
	require.NoError(t, svc.RecordProgress("u1", "v1", 90, 120))

	p, ok, err := svc.VideoProgress("u1", "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.Progress{Progress: 90, Duration: 120}, p)
	assert.InDelta(t, 0.75, p.Fraction(), 1e-9)

	all, err := svc.Progress("u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, ok, err = svc.VideoProgress("u1", "never")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.RecordProgress("u1", "v3", 150, 120), "elapsed past duration is kept")
}

func TestService_RecordProgressValidation(t *testing.T) {
	svc := setupTestService(t)

	tests := []struct {
		name              string
		elapsed, duration float64
	}{
		{"negative duration", 1, -1},
		{"negative elapsed", -1, 10},
		{"nan elapsed", math.NaN(), 10},
		{"infinite duration", 1, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RecordProgress("u1", "v1", tt.elapsed, tt.duration)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestService_WatchStateSelfHeals(t *testing.T) {
	svc := setupTestService(t)

	require.NoError(t, svc.scalar.SetRaw(entities.CompletionsKey("u1"), `{"v1":true}`))
	require.NoError(t, svc.scalar.SetRaw(entities.ProgressKey("u1"), `["v1"]`))

	ids, err := svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	progress, err := svc.Progress("u1")
	require.NoError(t, err)
	assert.Empty(t, progress)

	set, err := scalarstore.Get(svc.scalar, entities.CompletionsKey("u1"), entities.CompletionSet{"sentinel"})
	require.NoError(t, err)
	assert.Empty(t, set, "store now holds the default")

	completed, err := svc.ToggleCompletion("u1", "v1")
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestService_WatchStateKeepsGoodEntries(t *testing.T) {
	svc := setupTestService(t)

	require.NoError(t, svc.scalar.SetRaw(entities.CompletionsKey("u1"), `["a","b","","c","a","b"]`))
	require.NoError(t, svc.scalar.SetRaw(entities.ProgressKey("u1"),
		`{"good":{"progress":30,"duration":120},"bad":{"progress":5,"duration":-1},"":{"progress":1,"duration":2}}`))

	ids, err := svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	progress, err := svc.Progress("u1")
	require.NoError(t, err)
	assert.Equal(t, entities.ProgressMap{"good": {Progress: 30, Duration: 120}}, progress)

	completed, err := svc.ToggleCompletion("u1", "b")
	require.NoError(t, err)
	assert.False(t, completed, "one toggle removes an id that was stored twice")

	ids, err = svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)

	require.NoError(t, svc.RecordProgress("u1", "next", 10, 60))
	stored, err := scalarstore.Get(svc.scalar, entities.ProgressKey("u1"), entities.ProgressMap{})
	require.NoError(t, err)
	assert.Len(t, stored, 2, "the repaired map is what gets written back")
}

func TestService_CompletionSurvivesVideoDeletion(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	v, err := svc.AddVideo(ctx, scienceInput("Gone"))
	require.NoError(t, err)
	_, err = svc.ToggleCompletion("u1", v.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RecordProgress("u1", v.ID, 10, 60))

	require.NoError(t, svc.DeleteVideo(ctx, v.ID))

	ids, err := svc.CompletedVideoIDs("u1")
	require.NoError(t, err)
	assert.Contains(t, ids, v.ID)

	_, ok, err := svc.VideoProgress("u1", v.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := svc.ListVideos(ctx, "u1")
	require.NoError(t, err)
	for _, view := range list {
		assert.NotEqual(t, v.ID, view.ID)
	}
}

func TestService_QuotaExceeded(t *testing.T) {
	svc := setupTestService(t, scalarstore.WithQuota(4096))

	err := svc.RecordProgress("u1", strings.Repeat("x", 5000), 1, 2)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	progress, err := svc.Progress("u1")
	require.NoError(t, err)
	assert.Empty(t, progress)
}
