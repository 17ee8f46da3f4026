// Package surreal implements [github.com/gpodder/mygpo-migrate/pkg/store.Store]
// against SurrealDB.
//
// The connection is configured with the surrealcbor codec so that time.Time
// values and typed record IDs round-trip in the format SurrealDB expects.
// All lookups use parameterized SurrealQL; document values are never
// interpolated into query strings.
//
// Optimistic concurrency: SurrealDB does not carry a CouchDB-style _rev, so
// every document stores an explicit rev field and Save issues
//
//	UPDATE $id CONTENT $content WHERE rev = $rev RETURN AFTER
//
// An empty result means the stored revision moved, which is surfaced as an
// error wrapping [store.ErrConflict].
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// Store implements store.Store on a SurrealDB connection.
type Store struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// New connects to SurrealDB at wsURL and selects the given namespace and
// database, authenticating first when credentials are provided.
func New(wsURL, namespace, database, username, password string) (*Store, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// Use surrealcbor so time.Time and RecordID values marshal in
	// SurrealDB's native format.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db, ns: namespace, database: database}, nil
}

// Migrate defines the oldid lookup indexes. Tables themselves are created
// implicitly on first insert; only the indexes backing the identity
// resolver need to exist up front. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		"DEFINE INDEX IF NOT EXISTS podcasts_oldid ON TABLE podcasts FIELDS oldid",
		"DEFINE INDEX IF NOT EXISTS podcast_groups_oldid ON TABLE podcast_groups FIELDS oldid",
		"DEFINE INDEX IF NOT EXISTS episodes_oldid ON TABLE episodes FIELDS oldid",
		"DEFINE INDEX IF NOT EXISTS users_oldid ON TABLE users FIELDS oldid",
	}
	for _, stmt := range statements {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return fmt.Errorf("failed to define index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps the driver's "no result" errors to a plain miss.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// findByOldID runs the indexed oldid lookup for one table.
func findByOldID[T any](ctx context.Context, s *Store, table string, oldID int64) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE oldid = $oldid LIMIT 1", table)
	result, err := surrealdb.Query[[]T](ctx, s.db, query, map[string]any{
		"oldid": oldID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s by oldid: %w", table, err)
	}
	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

// getDoc selects a single record by id.
func getDoc[T any](ctx context.Context, s *Store, rid surrealdb_models.RecordID) (*T, error) {
	doc, err := surrealdb.Select[T](ctx, s.db, rid)
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", rid.Table, err)
	}
	return doc, nil
}

// saveDoc performs the revision-checked replace. content must already carry
// the bumped revision; expectedRev is the revision the caller read.
func saveDoc[T any](ctx context.Context, s *Store, rid surrealdb_models.RecordID, content T, expectedRev int64) (*T, error) {
	query := "UPDATE $id CONTENT $content WHERE rev = $rev RETURN AFTER"
	result, err := surrealdb.Query[[]T](ctx, s.db, query, map[string]any{
		"id":      rid,
		"content": content,
		"rev":     expectedRev,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", rid.Table, err)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil, fmt.Errorf("%s rev %d is stale: %w", rid.Table, expectedRev, store.ErrConflict)
	}
	return &(*result)[0].Result[0], nil
}

// Podcast operations

func (s *Store) FindPodcastByOldID(ctx context.Context, oldID int64) (*documents.Podcast, error) {
	return findByOldID[documents.Podcast](ctx, s, "podcasts", oldID)
}

func (s *Store) GetPodcast(ctx context.Context, id documents.PodcastID) (*documents.Podcast, error) {
	return getDoc[documents.Podcast](ctx, s, id.RecordID())
}

func (s *Store) CreatePodcast(ctx context.Context, p *documents.Podcast) error {
	if p.ID.IsZero() {
		p.ID = documents.NewPodcastID()
	}
	p.Rev = 1
	if _, err := surrealdb.Create[documents.Podcast](ctx, s.db, p.ID.RecordID(), p); err != nil {
		return fmt.Errorf("failed to create podcast: %w", err)
	}
	return nil
}

func (s *Store) SavePodcast(ctx context.Context, p *documents.Podcast) error {
	expected := p.Rev
	next := *p
	next.Rev = expected + 1
	saved, err := saveDoc(ctx, s, p.ID.RecordID(), next, expected)
	if err != nil {
		return err
	}
	*p = *saved
	return nil
}

func (s *Store) DeletePodcast(ctx context.Context, id documents.PodcastID) error {
	_, err := surrealdb.Delete[documents.Podcast](ctx, s.db, id.RecordID())
	return err
}

// PodcastGroup operations

func (s *Store) FindGroupByOldID(ctx context.Context, oldID int64) (*documents.PodcastGroup, error) {
	return findByOldID[documents.PodcastGroup](ctx, s, "podcast_groups", oldID)
}

func (s *Store) GetGroup(ctx context.Context, id documents.PodcastGroupID) (*documents.PodcastGroup, error) {
	return getDoc[documents.PodcastGroup](ctx, s, id.RecordID())
}

func (s *Store) CreateGroup(ctx context.Context, g *documents.PodcastGroup) error {
	if g.ID.IsZero() {
		g.ID = documents.NewPodcastGroupID()
	}
	g.Rev = 1
	if _, err := surrealdb.Create[documents.PodcastGroup](ctx, s.db, g.ID.RecordID(), g); err != nil {
		return fmt.Errorf("failed to create podcast group: %w", err)
	}
	return nil
}

func (s *Store) SaveGroup(ctx context.Context, g *documents.PodcastGroup) error {
	expected := g.Rev
	next := *g
	next.Rev = expected + 1
	saved, err := saveDoc(ctx, s, g.ID.RecordID(), next, expected)
	if err != nil {
		return err
	}
	*g = *saved
	return nil
}

// Episode operations

func (s *Store) FindEpisodeByOldID(ctx context.Context, oldID int64) (*documents.Episode, error) {
	return findByOldID[documents.Episode](ctx, s, "episodes", oldID)
}

func (s *Store) GetEpisode(ctx context.Context, id documents.EpisodeID) (*documents.Episode, error) {
	return getDoc[documents.Episode](ctx, s, id.RecordID())
}

func (s *Store) CreateEpisode(ctx context.Context, e *documents.Episode) error {
	if e.ID.IsZero() {
		e.ID = documents.NewEpisodeID()
	}
	e.Rev = 1
	if _, err := surrealdb.Create[documents.Episode](ctx, s.db, e.ID.RecordID(), e); err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

func (s *Store) SaveEpisode(ctx context.Context, e *documents.Episode) error {
	expected := e.Rev
	next := *e
	next.Rev = expected + 1
	saved, err := saveDoc(ctx, s, e.ID.RecordID(), next, expected)
	if err != nil {
		return err
	}
	*e = *saved
	return nil
}

// User operations

func (s *Store) FindUserByOldID(ctx context.Context, oldID int64) (*documents.User, error) {
	return findByOldID[documents.User](ctx, s, "users", oldID)
}

func (s *Store) GetUser(ctx context.Context, id documents.UserID) (*documents.User, error) {
	return getDoc[documents.User](ctx, s, id.RecordID())
}

func (s *Store) CreateUser(ctx context.Context, u *documents.User) error {
	if u.ID.IsZero() {
		u.ID = documents.NewUserID()
	}
	u.Rev = 1
	if _, err := surrealdb.Create[documents.User](ctx, s.db, u.ID.RecordID(), u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *documents.User) error {
	expected := u.Rev
	next := *u
	next.Rev = expected + 1
	saved, err := saveDoc(ctx, s, u.ID.RecordID(), next, expected)
	if err != nil {
		return err
	}
	*u = *saved
	return nil
}

// FindDevice resolves a device by (owner, uid). The device set lives inside
// the user document, so this is a user fetch plus an in-memory scan.
func (s *Store) FindDevice(ctx context.Context, userID documents.UserID, uid string) (*documents.Device, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user.FindDevice(uid), nil
}

var _ store.Store = (*Store)(nil)
