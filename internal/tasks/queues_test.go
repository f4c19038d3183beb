package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResetter struct {
	triggers chan string
	err      error
}

func (f *fakeResetter) ResetVideosFrom(ctx context.Context, trigger string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.triggers <- trigger
	return 7, nil
}

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepLegacy(ctx context.Context) (int, error) {
	f.calls++
	return 2, f.err
}

type fakePruner struct {
	retention time.Duration
}

func (f *fakePruner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, nil
}

func TestResetCatalogTaskConfig(t *testing.T) {
	cfg := ResetCatalogTask{}.Config()

	assert.Equal(t, "reset_catalog", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestResetCatalogProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("passes trigger", func(t *testing.T) {
		resetter := &fakeResetter{triggers: make(chan string, 1)}
		err := ResetCatalogProcessor(resetter)(ctx, ResetCatalogTask{Trigger: "schedule"})
		require.NoError(t, err)
		assert.Equal(t, "schedule", <-resetter.triggers)
	})

	t.Run("defaults trigger", func(t *testing.T) {
		resetter := &fakeResetter{triggers: make(chan string, 1)}
		err := ResetCatalogProcessor(resetter)(ctx, ResetCatalogTask{})
		require.NoError(t, err)
		assert.Equal(t, "queue", <-resetter.triggers)
	})

	t.Run("wraps failure", func(t *testing.T) {
		boom := errors.New("boom")
		err := ResetCatalogProcessor(&fakeResetter{err: boom})(ctx, ResetCatalogTask{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil resetter", func(t *testing.T) {
		err := ResetCatalogProcessor(nil)(ctx, ResetCatalogTask{})
		assert.Error(t, err)
	})
}

func TestSweepLegacyProcessor(t *testing.T) {
	ctx := context.Background()

	sweeper := &fakeSweeper{}
	require.NoError(t, SweepLegacyProcessor(sweeper)(ctx, SweepLegacyTask{}))
	assert.Equal(t, 1, sweeper.calls)

	failing := &fakeSweeper{err: errors.New("locked")}
	assert.Error(t, SweepLegacyProcessor(failing)(ctx, SweepLegacyTask{}))

	cfg := SweepLegacyTask{}.Config()
	assert.Equal(t, "sweep_legacy", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestPruneAuditEventsProcessor(t *testing.T) {
	ctx := context.Background()

	pruner := &fakePruner{}
	require.NoError(t, PruneAuditEventsProcessor(pruner)(ctx, PruneAuditEventsTask{RetentionDays: 10}))
	assert.Equal(t, 10*24*time.Hour, pruner.retention)

	require.NoError(t, PruneAuditEventsProcessor(pruner)(ctx, PruneAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, pruner.retention)

	assert.Error(t, PruneAuditEventsProcessor(nil)(ctx, PruneAuditEventsTask{}))
}

func TestResetCatalogQueue_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	client, err := NewClient(filepath.Join(t.TempDir(), "data.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	resetter := &fakeResetter{triggers: make(chan string, 1)}
	client.Register(NewResetCatalogQueue(resetter))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	_, err = client.Enqueue(ResetCatalogTask{Trigger: "manual"})
	require.NoError(t, err)

	select {
	case trigger := <-resetter.triggers:
		assert.Equal(t, "manual", trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("reset task was not executed within timeout")
	}
}
