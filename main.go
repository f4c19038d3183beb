package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/lessonstore/internal/cli"
	"github.com/mrlokans/lessonstore/internal/config"
	"github.com/mrlokans/lessonstore/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// No arguments or "run" starts the long-running process
	if len(os.Args) < 2 || os.Args[1] == "run" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "init":
		cmd = cli.NewInitCommand()
	case "stats":
		cmd = cli.NewStatsCommand()
	case "reset-videos":
		cmd = cli.NewResetVideosCommand()
	case "import-legacy":
		cmd = cli.NewImportLegacyCommand()
	case "version":
		fmt.Printf("lessonstore %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run             Open the database and run task workers and schedules (default)\n")
	fmt.Fprintf(os.Stderr, "  init            Create the database, migrating or seeding the catalog\n")
	fmt.Fprintf(os.Stderr, "  stats           Show catalog, user and storage figures\n")
	fmt.Fprintf(os.Stderr, "  reset-videos    Restore the seed catalog\n")
	fmt.Fprintf(os.Stderr, "  import-legacy   Import a catalog exported from the old player\n")
	fmt.Fprintf(os.Stderr, "  version         Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
