// Package app wires the migration together: configuration, the relational
// source, the document store, the migration engine and the CLI commands
// (migrate, backfill, serve).
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gpodder/mygpo-migrate/pkg/migrate"
	"github.com/gpodder/mygpo-migrate/pkg/store"
	"github.com/gpodder/mygpo-migrate/pkg/store/relational"
	"github.com/gpodder/mygpo-migrate/pkg/store/surreal"
)

// Config holds application configuration, populated from environment
// variables and flags by [Parse].
type Config struct {
	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	ServerPort string
	// Retries bounds the save-retry loop on document revision conflicts.
	Retries int
	// BatchSize is the number of rows fetched per relational query during
	// backfill.
	BatchSize int
}

// App holds the application state: the two store handles and the migration
// engine built on top of them.
type App struct {
	config   *Config
	source   *relational.Source
	store    store.Store
	migrator *migrate.Migrator
	hooks    *migrate.Hooks
	log      zerolog.Logger
}

// New connects to PostgreSQL and SurrealDB and builds the application.
func New(config *Config) (*App, error) {
	source, err := relational.New(config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	st, err := surreal.New(
		config.SurrealDBURL,
		config.SurrealDBNS,
		config.SurrealDBDB,
		config.SurrealDBUser,
		config.SurrealDBPass,
	)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	return NewWithStores(config, source, st), nil
}

// NewWithStores builds the application around pre-connected stores. Tests
// use it with an in-process document store and a sqlite-backed source.
func NewWithStores(config *Config, source *relational.Source, st store.Store) *App {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	migrator := migrate.New(st, source, config.Retries)
	return &App{
		config:   config,
		source:   source,
		store:    st,
		migrator: migrator,
		hooks:    migrate.NewHooks(migrator, log),
		log:      log,
	}
}

// Close releases both store connections.
func (a *App) Close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Migrator returns the migration engine (useful for testing).
func (a *App) Migrator() *migrate.Migrator {
	return a.migrator
}

// Migrate sets up the document store indexes.
func (a *App) Migrate(ctx context.Context, _ *MigrateCommand) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("setting up document store: %w", err)
	}
	a.log.Info().Msg("document store ready")
	return nil
}

// Main is the application entry point: it parses args, builds the app and
// dispatches the command. Callable directly from tests without building the
// binary.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	case *BackfillCommand:
		if err := app.Backfill(ctx, c); err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}
	case *ServeCommand:
		if err := app.Serve(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
