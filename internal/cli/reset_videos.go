package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/lessonstore/internal/dataservice"
	"github.com/mrlokans/lessonstore/internal/tasks"
)

// ResetVideosCommand replaces the whole catalog with the seed dataset, either
// directly or by queueing a task for a running server.
type ResetVideosCommand struct {
	DatabasePath string
	Async        bool
	Yes          bool
}

func NewResetVideosCommand() *ResetVideosCommand {
	return &ResetVideosCommand{}
}

func (cmd *ResetVideosCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset-videos", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.Async, "async", false, "Queue the reset for the task workers of a running server")
	fs.BoolVar(&cmd.Yes, "yes", false, "Confirm that every current video will be discarded")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset-videos -yes [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Discard every video and restore the seed catalog. Watch state of\n")
		fmt.Fprintf(os.Stderr, "seed videos survives because seed ids are fixed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s reset-videos -yes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s reset-videos -yes -async\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmd.Yes {
		return fmt.Errorf("refusing to reset without -yes")
	}
	return nil
}

func (cmd *ResetVideosCommand) Run() error {
	ctx := context.Background()
	app, cfg, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Async {
		client, err := app.NewTaskClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to open task queue: %w", err)
		}
		defer client.Close()

		ids, err := client.Enqueue(tasks.ResetCatalogTask{Trigger: dataservice.ResetTriggerManual})
		if err != nil {
			return fmt.Errorf("failed to queue reset: %w", err)
		}
		fmt.Printf("Queued catalog reset (task %s)\n", ids[0])
		return nil
	}

	seeded, err := app.Data.ResetVideosFrom(ctx, dataservice.ResetTriggerManual)
	if err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	fmt.Printf("Catalog reset: %d seed videos written\n", seeded)
	return nil
}
