package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "lessons.db"), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestQueueDBPath(t *testing.T) {
	tests := []struct {
		main string
		want string
	}{
		{"data/lessons.db", "data/lessons-tasks.db"},
		{"/var/lib/lessonstore/store.sqlite3", "/var/lib/lessonstore/store-tasks.sqlite3"},
		{"lessons", "lessons-tasks"},
	}
	for _, tt := range tests {
		t.Run(tt.main, func(t *testing.T) {
			assert.Equal(t, tt.want, QueueDBPath(tt.main))
		})
	}
}

func TestNewClient_CreatesQueueFile(t *testing.T) {
	client := newTestClient(t)

	assert.Equal(t, "lessons-tasks.db", filepath.Base(client.Path()))
	_, err := os.Stat(client.Path())
	assert.NoError(t, err)
}

func TestClient_StopWithoutStart(t *testing.T) {
	client := newTestClient(t)

	assert.True(t, client.Stop(context.Background()))
}

func TestClient_StartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)
	client.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
	assert.True(t, client.Stop(stopCtx), "second stop is a no-op")
}

type echoTask struct {
	Value string `json:"value"`
}

func (echoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "echo",
		MaxAttempts: 1,
		Timeout:     5 * time.Second,
	}
}

func TestClient_EnqueueBeforeStart(t *testing.T) {
	client := newTestClient(t)

	seen := make(chan string, 2)
	client.Register(backlite.NewQueue(func(_ context.Context, task echoTask) error {
		seen <- task.Value
		return nil
	}))

	ids, err := client.Enqueue(echoTask{Value: "first"}, echoTask{Value: "second"})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case v := <-seen:
			got[v] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of 2 queued tasks ran", len(got))
		}
	}
	assert.True(t, got["first"])
	assert.True(t, got["second"])
}

func TestConfig_WithDefaults(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 1, def.Workers)
	assert.Equal(t, 15*time.Minute, def.ReleaseAfter)
	assert.Equal(t, time.Hour, def.CleanupInterval)

	cfg := Config{Workers: 3, ReleaseAfter: -time.Second}.withDefaults()
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, def.ReleaseAfter, cfg.ReleaseAfter)
	assert.Equal(t, def.CleanupInterval, cfg.CleanupInterval)
}
