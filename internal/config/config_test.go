package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, int64(DefaultScalarQuotaBytes), cfg.Scalar.QuotaBytes)
	assert.False(t, cfg.Scalar.FailOnCorruption)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 1, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.False(t, cfg.CatalogReset.Enabled)
	assert.Equal(t, DefaultCatalogResetSchedule, cfg.CatalogReset.Schedule)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, 5, cfg.Global.ShutdownTimeoutInSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/class.db")
	t.Setenv("SCALAR_QUOTA_BYTES", "1024")
	t.Setenv("CATALOG_RESET_ENABLED", "true")
	t.Setenv("CATALOG_RESET_SCHEDULE", "*/30 * * * *")
	t.Setenv("TASK_RELEASE_AFTER", "2m")

	cfg := NewConfig()

	assert.Equal(t, "/tmp/class.db", cfg.Database.Path)
	assert.Equal(t, int64(1024), cfg.Scalar.QuotaBytes)
	assert.True(t, cfg.CatalogReset.Enabled)
	assert.Equal(t, "*/30 * * * *", cfg.CatalogReset.Schedule)
	assert.Equal(t, 2*time.Minute, cfg.Tasks.ReleaseAfter)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"negative quota", func(c *Config) { c.Scalar.QuotaBytes = -1 }},
		{"password minimum over bcrypt limit", func(c *Config) { c.Auth.MinPasswordLength = 80 }},
		{"no workers", func(c *Config) { c.Tasks.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
