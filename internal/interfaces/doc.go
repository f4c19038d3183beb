// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Scalar Store Values
//
//   - ShapeChecker: a decoded value reports whether it is structurally sound
//     (internal/scalarstore/store.go). Values failing the check are treated
//     like undecodable JSON and replaced with the caller's default.
//
// ## Task Queue Dependencies
//
//   - CatalogResetter: reseeds the catalog (internal/tasks/reset_catalog.go)
//   - LegacySweeper: moves legacy catalog data (internal/tasks/sweep_legacy.go)
//   - AuditPruner: drops old audit events (internal/tasks/prune_audit.go)
//
// ## Scheduling
//
//   - Enqueuer: persists tasks for the workers (internal/scheduler/maintenance.go)
//
// # Adding a New Scalar Value
//
// To store a new per-user value (e.g., bookmarks):
//
//  1. Define the type in internal/entities/ and a key helper next to
//     CompletionsKey.
//
//     type BookmarkSet []Bookmark
//
//     func BookmarksKey(userID string) string { return "bookmarks:" + userID }
//
//  2. Add a ShapeOK method if decoding alone cannot catch bad data, and a
//     compile-time check:
//
//     var _ scalarstore.ShapeChecker = entities.BookmarkSet(nil)
//
//  3. Read it with scalarstore.Get(store, key, entities.BookmarkSet{}) inside
//     the owning user's lane in internal/dataservice.
//
// # Adding a New Maintenance Job
//
//  1. Define the task and its processor in internal/tasks/ next to
//     reset_catalog.go, with a narrow interface for its dependency.
//
//  2. Register the queue in entrypoint.App.NewTaskClient.
//
//  3. If it runs on a schedule, add a job in scheduler.MaintenanceScheduler.Start.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
