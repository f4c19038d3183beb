package database

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey means a unique key (video id, user email) is taken.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrQuotaExceeded means the storage medium refused a write for capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCorruptData means a persisted value could not be decoded into the
	// expected shape. The scalar store recovers from it locally.
	ErrCorruptData = errors.New("corrupt persisted data")
	// ErrTransactionAborted means a batch commit failed and nothing from the
	// batch became visible.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// IsStorageFull reports whether err is SQLite refusing a write because the
// disk or database file is full.
func IsStorageFull(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrFull
	}
	return false
}

// IsUniqueViolation reports whether err is a primary key or unique index
// conflict.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
