// Package database provides the data access layer for the application.
//
// # Architecture
//
// Both persistence backends share one SQLite file:
//
//	database/
//	├── database.go   # Connection setup, migrations of shared tables
//	├── errors.go     # Error taxonomy shared by every store
//	├── kv/           # Scalar store rows: whole JSON values by key
//	├── videos/       # Record store: transactional, indexed video catalog
//	└── audit/        # Audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./lessons.db")
//
//	kvRepo := kv.NewRepository(db.DB)
//	videoStore := videos.NewStore(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
// The scalar store (internal/scalarstore) adds typed JSON decoding and the
// reset-on-corruption policy on top of kv.Repository.
//
// # Connection Model
//
// The pool is limited to one connection. SQLite allows a single writer, and a
// single connection turns concurrent callers into a queue instead of
// SQLITE_BUSY failures. Code running inside a transaction must use the
// transaction handle only.
package database
