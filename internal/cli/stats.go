package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/lessonstore/internal/audit"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// StatsCommand prints catalog and storage usage figures.
type StatsCommand struct {
	DatabasePath string
	AuditEvents  int
	AuditType    string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.IntVar(&cmd.AuditEvents, "audit", 0, "Also print the N most recent audit events")
	fs.StringVar(&cmd.AuditType, "audit-type", "", "Only count and list audit events of this type (migration, catalog, delete, user)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show catalog size, user count and scalar storage usage.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.AuditEvents < 0 {
		return fmt.Errorf("-audit must not be negative")
	}
	switch entities.AuditEventType(cmd.AuditType) {
	case "", entities.AuditEventMigration, entities.AuditEventCatalog, entities.AuditEventDelete, entities.AuditEventUser:
	default:
		return fmt.Errorf("unknown -audit-type %q", cmd.AuditType)
	}
	return nil
}

func (cmd *StatsCommand) Run() error {
	ctx := context.Background()
	app, cfg, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.Data.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Database:        %s\n", cfg.Database.Path)
	fmt.Printf("Migration state: %s\n", stats.MigrationState)
	fmt.Printf("Videos:          %d\n", stats.Videos)
	fmt.Printf("Users:           %d\n", stats.Users)
	if cfg.Scalar.QuotaBytes > 0 {
		fmt.Printf("Scalar usage:    %d / %d bytes (%.1f%%)\n",
			stats.ScalarBytes, cfg.Scalar.QuotaBytes,
			float64(stats.ScalarBytes)*100/float64(cfg.Scalar.QuotaBytes))
	} else {
		fmt.Printf("Scalar usage:    %d bytes (no quota)\n", stats.ScalarBytes)
	}

	filter := audit.Filter{EventType: entities.AuditEventType(cmd.AuditType)}
	counts, err := app.Audit.Summary(filter)
	if err != nil {
		return fmt.Errorf("failed to count audit events: %w", err)
	}
	fmt.Println("\nAudit events:")
	if len(counts) == 0 {
		fmt.Println("  none")
	}
	for _, c := range counts {
		fmt.Printf("  %-10s %d\n", c.EventType, c.Count)
	}

	if cmd.AuditEvents == 0 {
		return nil
	}

	events, err := app.Audit.Recent(filter, cmd.AuditEvents)
	if err != nil {
		return fmt.Errorf("failed to read audit events: %w", err)
	}
	fmt.Println("\nRecent events:")
	for _, e := range events {
		fmt.Printf("  %s  %-20s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Description)
	}
	return nil
}
