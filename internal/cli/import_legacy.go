package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// ImportLegacyCommand loads a legacy catalog export (a JSON array of videos)
// into the legacy key and sweeps it into the record store.
type ImportLegacyCommand struct {
	FilePath     string
	DatabasePath string
}

func NewImportLegacyCommand() *ImportLegacyCommand {
	return &ImportLegacyCommand{}
}

func (cmd *ImportLegacyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-legacy", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the legacy catalog JSON file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-legacy -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import videos exported from the old player. Records with an id that\n")
		fmt.Fprintf(os.Stderr, "already exists overwrite it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportLegacyCommand) Run() error {
	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read legacy file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("legacy file must hold a JSON array of videos: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Legacy file is empty, nothing to import")
		return nil
	}

	ctx := context.Background()
	app, _, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	moved, err := app.Data.ImportLegacy(ctx, string(data))
	if err != nil {
		return fmt.Errorf("failed to import legacy catalog: %w", err)
	}
	fmt.Printf("Imported %d of %d legacy videos\n", moved, len(records))
	return nil
}
