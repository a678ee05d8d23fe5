package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunMigrateCommand handles the 'migrate' subcommand. Confirmation for
// force is read from in.
func RunMigrateCommand(args []string, db *DB, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}

	switch action := args[0]; action {
	case "up":
		logf("Running migrations...")
		if err := db.MigrateUp(); err != nil {
			return err
		}
		return printVersion(db, out)

	case "down":
		logf("Rolling back one migration...")
		if err := db.MigrateDown(); err != nil {
			return err
		}
		return printVersion(db, out)

	case "version", "status":
		return printVersion(db, out)

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: navlog migrate force <version_number>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		fmt.Fprintf(out, "WARNING: forcing migration version to %d\n", v)
		fmt.Fprintln(out, "This should only be used to recover from a dirty migration state.")
		fmt.Fprint(out, "Continue? [y/N]: ")
		response, _ := bufio.NewReader(in).ReadString('\n')
		if r := strings.TrimSpace(response); r != "y" && r != "Y" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
		if err := db.MigrateForce(v); err != nil {
			return err
		}
		return printVersion(db, out)

	case "help":
		PrintMigrateHelp(out)
		return nil

	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}

func printVersion(db *DB, out io.Writer) error {
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run: navlog migrate force <version>")
	}
	return nil
}

// PrintMigrateHelp writes the usage of the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Database Migration Commands

Usage: navlog [-config file] [-db-driver driver] [-db dsn] migrate <command>

Commands:
  up          Apply all pending migrations
  down        Roll back one migration
  version     Show the current migration version
  force <N>   Force migration version to N (recovery only)
  help        Show this help message
`)
}
