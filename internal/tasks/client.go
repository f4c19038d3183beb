package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

type lifecycle int

const (
	idle lifecycle = iota
	running
	stopped
)

// Client owns the queue database and the backlite dispatcher.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	path     string
	workers  int

	mu    sync.Mutex
	state lifecycle
}

// QueueDBPath places the queue file next to the main database:
// "data/lessons.db" becomes "data/lessons-tasks.db".
func QueueDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open task database %s: %w", path, err)
	}
	// Workers plus the dispatcher and the enqueueing caller.
	db.SetMaxOpenConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens (or creates) the queue database belonging to mainDBPath and
// installs the backlite schema. Queues must be registered before Start.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	path := QueueDBPath(mainDBPath)

	db, err := openQueueDB(path, cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue at %s: %w", path, err)
	}

	return &Client{
		backlite: bl,
		db:       db,
		path:     path,
		workers:  cfg.Workers,
	}, nil
}

// Path returns the queue database file.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start launches the workers. Only the first call has an effect; a client
// cannot be restarted after Stop.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state != idle {
		c.mu.Unlock()
		return
	}
	c.state = running
	c.mu.Unlock()

	log.Printf("[TASK] Workers started (%d) on %s", c.workers, c.path)
	c.backlite.Start(ctx)
}

// Stop waits for in-flight tasks until ctx expires. It reports whether every
// worker finished in time; a client that never ran reports true.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != running {
		c.mu.Unlock()
		return true
	}
	c.state = stopped
	c.mu.Unlock()

	ok := c.backlite.Stop(ctx)
	if ok {
		log.Printf("[TASK] Workers stopped")
	} else {
		log.Printf("[TASK] Workers stopped before in-flight tasks finished")
	}
	return ok
}

// Close releases the queue database. Call Stop first.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue persists tasks in one insert and returns their ids. Tasks added
// while no worker runs are picked up on the next Start.
func (c *Client) Enqueue(tasks ...backlite.Task) ([]string, error) {
	ids, err := c.backlite.Add(tasks...).Save()
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %d task(s): %w", len(tasks), err)
	}
	return ids, nil
}

// queueLogger routes backlite's messages to the standard logger.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
