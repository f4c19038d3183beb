// Package config reads settings from the environment.
//
// Every setting has a default; see NewConfig for the variable names.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Scalar
		Auth
		Tasks
		CatalogReset
		Audit
		Global
	}

	Database struct {
		Path     string
		LogLevel string // silent, error, warn, info
	}
	Scalar struct {
		QuotaBytes       int64 // 0 disables the cap
		FailOnCorruption bool  // diagnostics only
	}
	Auth struct {
		BcryptCost        int
		MinPasswordLength int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	CatalogReset struct {
		Enabled  bool   // kiosk mode: periodically restore the seed catalog
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Audit struct {
		RetentionDays int
		PruneSchedule string // Cron format, empty disables pruning
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	// Scalar store defaults
	v.SetDefault("scalar_quota_bytes", DefaultScalarQuotaBytes)
	v.SetDefault("scalar_fail_on_corruption", false)

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", 10)
	v.SetDefault("auth_min_password_length", 8)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Maintenance defaults
	v.SetDefault("catalog_reset_enabled", false)
	v.SetDefault("catalog_reset_schedule", DefaultCatalogResetSchedule)
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_prune_schedule", DefaultAuditPruneSchedule)

	return &Config{
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Scalar: Scalar{
			QuotaBytes:       v.GetInt64("SCALAR_QUOTA_BYTES"),
			FailOnCorruption: v.GetBool("SCALAR_FAIL_ON_CORRUPTION"),
		},
		Auth: Auth{
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength: v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		CatalogReset: CatalogReset{
			Enabled:  v.GetBool("CATALOG_RESET_ENABLED"),
			Schedule: v.GetString("CATALOG_RESET_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
			PruneSchedule: v.GetString("AUDIT_PRUNE_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.Scalar.QuotaBytes < 0 {
		return fmt.Errorf("SCALAR_QUOTA_BYTES must not be negative, got %d", c.Scalar.QuotaBytes)
	}
	if c.Auth.MinPasswordLength > 72 {
		return fmt.Errorf("AUTH_MIN_PASSWORD_LENGTH cannot exceed bcrypt's 72 byte limit, got %d", c.Auth.MinPasswordLength)
	}
	if c.Tasks.Enabled && c.Tasks.Workers <= 0 {
		return fmt.Errorf("TASK_WORKERS must be positive when tasks are enabled, got %d", c.Tasks.Workers)
	}
	return nil
}
