package app

import (
	"flag"
	"fmt"
	"os"

	"github.com/gpodder/mygpo-migrate/pkg/migrate"
)

// Parse parses command line arguments into the command to execute and the
// shared application configuration. Database settings come from environment
// variables; flags cover the per-invocation knobs.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("mygpo-migrate", flag.ContinueOnError)

	var (
		port    = flagSet.String("port", "8080", "Server port")
		retries = flagSet.Int("retries", migrate.DefaultRetries, "Save attempts per document on revision conflicts")
		batch   = flagSet.Int("batch", 500, "Rows fetched per relational batch during backfill")
		kind    = flagSet.String("kind", "all", "What to backfill: all, podcasts, episodes, users, devices")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: mygpo-migrate [flags] <command>

Commands:
  migrate    Set up document-store indexes
  backfill   Bulk-convert relational records into documents
  serve      Serve the change-event hooks and backfill API

Examples:
  mygpo-migrate migrate
  mygpo-migrate backfill                 # everything
  mygpo-migrate -kind podcasts backfill
  mygpo-migrate -port=8090 serve`)
	}

	config := &Config{
		PostgresDSN:   getenv("POSTGRES_DSN", "host=localhost user=mygpo dbname=mygpo sslmode=disable"),
		SurrealDBURL:  getenv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNS:   getenv("SURREALDB_NS", "mygpo"),
		SurrealDBDB:   getenv("SURREALDB_DB", "mygpo"),
		SurrealDBUser: getenv("SURREALDB_USER", "root"),
		SurrealDBPass: getenv("SURREALDB_PASS", "root"),
		ServerPort:    *port,
		Retries:       *retries,
		BatchSize:     *batch,
	}

	var cmd Command
	switch remaining[0] {
	case "migrate":
		cmd = &MigrateCommand{}
	case "backfill":
		switch *kind {
		case "all", "podcasts", "episodes", "users", "devices":
		default:
			return nil, nil, fmt.Errorf("invalid backfill kind: %s", *kind)
		}
		cmd = &BackfillCommand{Kind: *kind}
	case "serve":
		cmd = &ServeCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: migrate, backfill, serve", remaining[0])
	}

	return cmd, config, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
