package app

// Command is a discrete application operation with its specific options.
// Commands are produced by [Parse] and executed by the matching method on
// [App] (App.Migrate, App.Backfill, App.Serve).
type Command interface {
	// Name returns the CLI sub-command the command was parsed from.
	Name() string
}

// MigrateCommand sets up the document store: it defines the oldid lookup
// indexes the migration depends on. Safe to run repeatedly.
type MigrateCommand struct{}

func (*MigrateCommand) Name() string { return "migrate" }

// BackfillCommand runs the bulk conversion of the relational tables into
// the document store.
type BackfillCommand struct {
	// Kind selects what to backfill: podcasts, episodes, users, devices or
	// all.
	Kind string
}

func (*BackfillCommand) Name() string { return "backfill" }

// ServeCommand starts the HTTP server exposing the change-event hooks and
// the on-demand backfill endpoints.
type ServeCommand struct{}

func (*ServeCommand) Name() string { return "serve" }
