package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/lessonstore/internal/audit"
	"github.com/mrlokans/lessonstore/internal/dataservice"
	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/migration"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
	"github.com/mrlokans/lessonstore/internal/scheduler"
	"github.com/mrlokans/lessonstore/internal/tasks"
)

// =============================================================================
// Scalar Store Values
// =============================================================================

// ShapeChecker implementations
var _ scalarstore.ShapeChecker = entities.UserTable(nil)
var _ scalarstore.ShapeChecker = migration.Marker{}

// =============================================================================
// Task Queue
// =============================================================================

// Task processor dependencies
var _ tasks.CatalogResetter = (*dataservice.Service)(nil)
var _ tasks.LegacySweeper = (*dataservice.Service)(nil)
var _ tasks.AuditPruner = (*audit.Service)(nil)

// Scheduler queue
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
