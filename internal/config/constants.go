package config

const (
	// DefaultDatabasePath is the default path for the application database.
	DefaultDatabasePath = "./lessonstore.db"

	// DefaultScalarQuotaBytes matches the 5 MiB local storage quota browsers
	// give one origin.
	DefaultScalarQuotaBytes = 5 * 1024 * 1024

	// DefaultCatalogResetSchedule resets a kiosk catalog nightly at 03:00.
	DefaultCatalogResetSchedule = "0 3 * * *"

	// DefaultAuditPruneSchedule prunes old audit events weekly.
	DefaultAuditPruneSchedule = "0 0 * * 0"
)
