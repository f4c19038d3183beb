package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// InitCommand opens the database once, which runs the catalog migration and
// seeds the user table, then prints where the catalog ended up.
type InitCommand struct {
	DatabasePath string
}

func NewInitCommand() *InitCommand {
	return &InitCommand{}
}

func (cmd *InitCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s init [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create or upgrade the local database. On first start the legacy\n")
		fmt.Fprintf(os.Stderr, "catalog is migrated, or the seed catalog is written if there is none.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *InitCommand) Run() error {
	ctx := context.Background()
	app, _, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.Data.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println("Database ready")
	fmt.Printf("  Migration state: %s\n", stats.MigrationState)
	fmt.Printf("  Videos:          %d\n", stats.Videos)
	fmt.Printf("  Users:           %d\n", stats.Users)
	return nil
}
