package main

import (
	"flag"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

// Applies the SQL migrations under migrations/ to the audit database.
// Usage: migrate [-dir migrations] <up|down|status|version> [args]
func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "migrations", "directory with migration files")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		slog.Error("Missing goose command (up, down, status, version)")
		os.Exit(1)
	}
	command := args[0]

	dbURL := os.Getenv("AUDIT_DB_URL")
	if dbURL == "" {
		slog.Error("AUDIT_DB_URL must be set")
		os.Exit(1)
	}

	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if err := goose.Run(command, db, *dir, args[1:]...); err != nil {
		slog.Error("Migration failed", "command", command, "error", err)
		os.Exit(1)
	}

	slog.Info("Migration complete", "command", command)
}
