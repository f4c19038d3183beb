package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lessonstore/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// Options tune how the connection is opened.
type Options struct {
	// LogLevel controls gorm's SQL logging. Defaults to logger.Warn.
	LogLevel logger.LogLevel
}

// NewDatabase opens the SQLite file and migrates the scalar store and audit
// tables. The video table belongs to the record store, which migrates it on
// its own first open.
func NewDatabase(dbPath string, opts ...Options) (*Database, error) {
	level := logger.Warn
	if len(opts) > 0 && opts[0].LogLevel != 0 {
		level = opts[0].LogLevel
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite serializes writers; a single connection keeps transactions from
	// failing with SQLITE_BUSY under concurrent callers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&entities.KVEntry{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ParseLogLevel maps a config string to a gorm log level.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
