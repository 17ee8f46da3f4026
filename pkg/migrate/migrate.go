// Package migrate converts the relational gpodder.net object model into
// document-store entities.
//
// The conversion is a one-time, best-effort migration. It runs either
// explicitly (bulk backfill over the relational tables) or implicitly
// (hooks fired when a relational record is saved or deleted), and every
// operation is an idempotent upsert keyed on the relational id:
//
//	existing = store.Find<Kind>ByOldID(old.ID)
//	if existing == nil { create document with oldid; }
//	reconcile fields old -> document
//	save only if something changed, retrying on revision conflicts
//
// Reconciliation is an explicit per-kind table of fields copied by value
// equality; collection fields (urls, mimetypes) are merged as append-only
// sets; aggregates with no single source column (related podcasts, group
// membership, subscriber history) are folded in by cross-entity lookups
// that sparse-create any document they reference.
package migrate

import (
	"context"

	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// DefaultRetries bounds the save-retry loop when the document store reports
// revision conflicts.
const DefaultRetries = 3

// Source is the slice of the relational store the reconcile steps need
// beyond the record being migrated. The full gorm-backed implementation is
// [github.com/gpodder/mygpo-migrate/pkg/store/relational.Source]; tests
// stub it.
type Source interface {
	// RelatedPodcasts returns the podcasts related to the given podcast,
	// deduplicated by id.
	RelatedPodcasts(ctx context.Context, podcastID int64) ([]models.Podcast, error)
	// HistoricData returns the podcast's subscriber-count samples ordered
	// by date ascending.
	HistoricData(ctx context.Context, podcastID int64) ([]models.HistoricPodcastData, error)
}

// Migrator drives the conversion. It owns no state beyond its two store
// handles; all shared mutable state lives in the document store, guarded by
// its optimistic concurrency.
type Migrator struct {
	store   store.Store
	source  Source
	retries int
}

// New creates a Migrator. retries bounds the conflict-retry loop; values
// below 1 fall back to DefaultRetries.
func New(st store.Store, src Source, retries int) *Migrator {
	if retries < 1 {
		retries = DefaultRetries
	}
	return &Migrator{store: st, source: src, retries: retries}
}

// Store exposes the document store the migrator writes through.
func (m *Migrator) Store() store.Store {
	return m.store
}
