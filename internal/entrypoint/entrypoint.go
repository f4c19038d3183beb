package entrypoint

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/lessonstore/internal/audit"
	"github.com/mrlokans/lessonstore/internal/auth"
	"github.com/mrlokans/lessonstore/internal/config"
	"github.com/mrlokans/lessonstore/internal/database"
	auditrepo "github.com/mrlokans/lessonstore/internal/database/audit"
	"github.com/mrlokans/lessonstore/internal/database/kv"
	"github.com/mrlokans/lessonstore/internal/database/videos"
	"github.com/mrlokans/lessonstore/internal/dataservice"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
	"github.com/mrlokans/lessonstore/internal/scheduler"
	"github.com/mrlokans/lessonstore/internal/tasks"
)

// App bundles the opened data layer. Close releases the database file.
type App struct {
	DB    *database.Database
	Audit *audit.Service
	Data  *dataservice.Service
}

// Open wires the stores from cfg and initializes the data service, which runs
// the catalog migration and seeds the user table on first start.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database.Path, database.Options{
		LogLevel: database.ParseLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	policy := scalarstore.ResetOnShapeMismatch
	if cfg.Scalar.FailOnCorruption {
		policy = scalarstore.FailOnShapeMismatch
	}
	scalar := scalarstore.New(kv.NewRepository(db.DB),
		scalarstore.WithQuota(cfg.Scalar.QuotaBytes),
		scalarstore.WithPolicy(policy),
	)
	auditSvc := audit.NewService(auditrepo.NewRepository(db.DB))

	data := dataservice.New(scalar, videos.NewStore(db.DB),
		dataservice.WithAudit(auditSvc),
		dataservice.WithPasswords(auth.NewPasswords(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength)),
	)
	if err := data.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize data service: %w", err)
	}

	return &App{
		DB:    db,
		Audit: auditSvc,
		Data:  data,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// NewTaskClient opens the task queue next to the main database and registers
// every maintenance queue against the app's services.
func (a *App) NewTaskClient(cfg *config.Config) (*tasks.Client, error) {
	client, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
		Workers:         cfg.Tasks.Workers,
		ReleaseAfter:    cfg.Tasks.ReleaseAfter,
		CleanupInterval: cfg.Tasks.CleanupInterval,
	})
	if err != nil {
		return nil, err
	}

	client.Register(
		tasks.NewResetCatalogQueue(a.Data),
		tasks.NewSweepLegacyQueue(a.Data),
		tasks.NewPruneAuditEventsQueue(a.Audit),
	)
	return client, nil
}

// Run opens the data layer, starts the task workers and maintenance schedule,
// and blocks until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting lessonstore v%s", version)

	app, err := Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open data layer: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	stats, err := app.Data.Stats(context.Background())
	if err != nil {
		log.Printf("WARNING: failed to read stats: %v", err)
	} else {
		log.Printf("Catalog: %d videos, %d users, migration state %s", stats.Videos, stats.Users, stats.MigrationState)
	}

	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tasks.Enabled {
		taskClient, err = app.NewTaskClient(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()
		go taskClient.Start(runCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.Config{
			CatalogResetEnabled:  cfg.CatalogReset.Enabled,
			CatalogResetSchedule: cfg.CatalogReset.Schedule,
			AuditPruneSchedule:   cfg.Audit.PruneSchedule,
			AuditRetentionDays:   cfg.Audit.RetentionDays,
		})
		if err := maintenance.Start(runCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else if cfg.CatalogReset.Enabled {
		log.Printf("WARNING: CATALOG_RESET_ENABLED has no effect while TASKS_ENABLED is false")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	log.Printf("Shutting down, waiting %v for running tasks\n", timeout)

	ctx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()

	if maintenance != nil {
		maintenance.Stop()
	}
	if taskClient != nil {
		if !taskClient.Stop(ctx) {
			log.Printf("Task workers did not finish within %v", timeout)
		}
	}
	cancel()

	log.Println("Exiting")
}
