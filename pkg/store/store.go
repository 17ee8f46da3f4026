// Package store defines the document-store interface the migration writes
// through.
//
// Two implementations exist:
//
//   - [github.com/gpodder/mygpo-migrate/pkg/store/surreal.Store] talks to
//     SurrealDB over its CBOR protocol and is what production runs against.
//   - [github.com/gpodder/mygpo-migrate/pkg/store/memory.Store] keeps
//     documents in process and exists so the reconcile and retry paths can be
//     tested without a server.
//
// Conventions, shared by both:
//
// Lookups return (nil, nil) for a miss; a miss is a valid signal to create,
// not an error. Create assigns the document identity and an initial revision.
// Save is a version-checked full replace: it succeeds only when the
// document's Rev matches the stored revision, bumps Rev on success and fails
// with an error wrapping [ErrConflict] when the revision moved underneath
// the caller. All methods take a context and block for the duration of the
// round-trip.
package store

import (
	"context"
	"errors"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
)

// ErrConflict is returned (wrapped) by Save methods when the document's
// revision no longer matches the stored one. Callers recover by re-fetching
// the document and replaying their change.
var ErrConflict = errors.New("document revision conflict")

// Store is the document-store interface consumed by the migration engine.
//
// The Find*ByOldID methods are the identity resolver: they look a document
// up by the relational id it was migrated from and must be backed by an
// index on the oldid field. FindDevice resolves by the compound natural key
// instead, since devices are sub-documents of users rather than top-level
// records.
type Store interface {
	FindPodcastByOldID(ctx context.Context, oldID int64) (*documents.Podcast, error)
	GetPodcast(ctx context.Context, id documents.PodcastID) (*documents.Podcast, error)
	CreatePodcast(ctx context.Context, p *documents.Podcast) error
	SavePodcast(ctx context.Context, p *documents.Podcast) error
	DeletePodcast(ctx context.Context, id documents.PodcastID) error

	FindGroupByOldID(ctx context.Context, oldID int64) (*documents.PodcastGroup, error)
	GetGroup(ctx context.Context, id documents.PodcastGroupID) (*documents.PodcastGroup, error)
	CreateGroup(ctx context.Context, g *documents.PodcastGroup) error
	SaveGroup(ctx context.Context, g *documents.PodcastGroup) error

	FindEpisodeByOldID(ctx context.Context, oldID int64) (*documents.Episode, error)
	GetEpisode(ctx context.Context, id documents.EpisodeID) (*documents.Episode, error)
	CreateEpisode(ctx context.Context, e *documents.Episode) error
	SaveEpisode(ctx context.Context, e *documents.Episode) error

	FindUserByOldID(ctx context.Context, oldID int64) (*documents.User, error)
	GetUser(ctx context.Context, id documents.UserID) (*documents.User, error)
	CreateUser(ctx context.Context, u *documents.User) error
	SaveUser(ctx context.Context, u *documents.User) error

	// FindDevice resolves a device by its owner and uid. The returned user
	// is the owning document the device was found in, so callers can save
	// through it.
	FindDevice(ctx context.Context, userID documents.UserID, uid string) (*documents.Device, error)

	// Migrate sets up whatever the backend needs for the oldid lookups to
	// be indexed. Safe to run repeatedly.
	Migrate(ctx context.Context) error

	Close() error
}
