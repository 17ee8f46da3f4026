// Package memory implements [github.com/gpodder/mygpo-migrate/pkg/store.Store]
// in process, with the same revision semantics as the SurrealDB store.
// It exists for tests: conflict and retry paths can be exercised by holding
// a stale copy of a document while saving through another.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// Store keeps documents in maps keyed by their id. Stored values are deep
// copies, so callers never alias store-internal state.
type Store struct {
	mu       sync.Mutex
	podcasts map[documents.PodcastID]*documents.Podcast
	groups   map[documents.PodcastGroupID]*documents.PodcastGroup
	episodes map[documents.EpisodeID]*documents.Episode
	users    map[documents.UserID]*documents.User

	// Saves counts successful Save* calls, so tests can assert that an
	// unchanged reconcile performed no write.
	Saves int
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		podcasts: make(map[documents.PodcastID]*documents.Podcast),
		groups:   make(map[documents.PodcastGroupID]*documents.PodcastGroup),
		episodes: make(map[documents.EpisodeID]*documents.Episode),
		users:    make(map[documents.UserID]*documents.User),
	}
}

func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func clonePodcast(p *documents.Podcast) *documents.Podcast {
	c := *p
	c.URLs = append([]string(nil), p.URLs...)
	c.RelatedPodcasts = append([]documents.PodcastID(nil), p.RelatedPodcasts...)
	c.Subscribers = append([]documents.SubscriberData(nil), p.Subscribers...)
	return &c
}

func cloneGroup(g *documents.PodcastGroup) *documents.PodcastGroup {
	c := *g
	c.Podcasts = append([]documents.PodcastID(nil), g.Podcasts...)
	return &c
}

func cloneEpisode(e *documents.Episode) *documents.Episode {
	c := *e
	c.URLs = append([]string(nil), e.URLs...)
	c.Mimetypes = append([]string(nil), e.Mimetypes...)
	return &c
}

func cloneUser(u *documents.User) *documents.User {
	c := *u
	c.Devices = append([]documents.Device(nil), u.Devices...)
	return &c
}

// Podcast operations

func (s *Store) FindPodcastByOldID(ctx context.Context, oldID int64) (*documents.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.podcasts {
		if p.OldID != nil && *p.OldID == oldID {
			return clonePodcast(p), nil
		}
	}
	return nil, nil
}

func (s *Store) GetPodcast(ctx context.Context, id documents.PodcastID) (*documents.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.podcasts[id]
	if !ok {
		return nil, nil
	}
	return clonePodcast(p), nil
}

func (s *Store) CreatePodcast(ctx context.Context, p *documents.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = documents.NewPodcastID()
	}
	if _, ok := s.podcasts[p.ID]; ok {
		return fmt.Errorf("podcast %s already exists", p.ID)
	}
	p.Rev = 1
	s.podcasts[p.ID] = clonePodcast(p)
	return nil
}

func (s *Store) SavePodcast(ctx context.Context, p *documents.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.podcasts[p.ID]
	if !ok {
		return fmt.Errorf("podcast %s does not exist", p.ID)
	}
	if stored.Rev != p.Rev {
		return fmt.Errorf("podcast %s rev %d is stale: %w", p.ID, p.Rev, store.ErrConflict)
	}
	p.Rev++
	s.podcasts[p.ID] = clonePodcast(p)
	s.Saves++
	return nil
}

func (s *Store) DeletePodcast(ctx context.Context, id documents.PodcastID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.podcasts, id)
	return nil
}

// PodcastGroup operations

func (s *Store) FindGroupByOldID(ctx context.Context, oldID int64) (*documents.PodcastGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.OldID != nil && *g.OldID == oldID {
			return cloneGroup(g), nil
		}
	}
	return nil, nil
}

func (s *Store) GetGroup(ctx context.Context, id documents.PodcastGroupID) (*documents.PodcastGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	return cloneGroup(g), nil
}

func (s *Store) CreateGroup(ctx context.Context, g *documents.PodcastGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = documents.NewPodcastGroupID()
	}
	if _, ok := s.groups[g.ID]; ok {
		return fmt.Errorf("podcast group %s already exists", g.ID)
	}
	g.Rev = 1
	s.groups[g.ID] = cloneGroup(g)
	return nil
}

func (s *Store) SaveGroup(ctx context.Context, g *documents.PodcastGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.groups[g.ID]
	if !ok {
		return fmt.Errorf("podcast group %s does not exist", g.ID)
	}
	if stored.Rev != g.Rev {
		return fmt.Errorf("podcast group %s rev %d is stale: %w", g.ID, g.Rev, store.ErrConflict)
	}
	g.Rev++
	s.groups[g.ID] = cloneGroup(g)
	s.Saves++
	return nil
}

// Episode operations

func (s *Store) FindEpisodeByOldID(ctx context.Context, oldID int64) (*documents.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.episodes {
		if e.OldID != nil && *e.OldID == oldID {
			return cloneEpisode(e), nil
		}
	}
	return nil, nil
}

func (s *Store) GetEpisode(ctx context.Context, id documents.EpisodeID) (*documents.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.episodes[id]
	if !ok {
		return nil, nil
	}
	return cloneEpisode(e), nil
}

func (s *Store) CreateEpisode(ctx context.Context, e *documents.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = documents.NewEpisodeID()
	}
	if _, ok := s.episodes[e.ID]; ok {
		return fmt.Errorf("episode %s already exists", e.ID)
	}
	e.Rev = 1
	s.episodes[e.ID] = cloneEpisode(e)
	return nil
}

func (s *Store) SaveEpisode(ctx context.Context, e *documents.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.episodes[e.ID]
	if !ok {
		return fmt.Errorf("episode %s does not exist", e.ID)
	}
	if stored.Rev != e.Rev {
		return fmt.Errorf("episode %s rev %d is stale: %w", e.ID, e.Rev, store.ErrConflict)
	}
	e.Rev++
	s.episodes[e.ID] = cloneEpisode(e)
	s.Saves++
	return nil
}

// User operations

func (s *Store) FindUserByOldID(ctx context.Context, oldID int64) (*documents.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.OldID != nil && *u.OldID == oldID {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetUser(ctx context.Context, id documents.UserID) (*documents.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *Store) CreateUser(ctx context.Context, u *documents.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = documents.NewUserID()
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	u.Rev = 1
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *documents.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("user %s does not exist", u.ID)
	}
	if stored.Rev != u.Rev {
		return fmt.Errorf("user %s rev %d is stale: %w", u.ID, u.Rev, store.ErrConflict)
	}
	u.Rev++
	s.users[u.ID] = cloneUser(u)
	s.Saves++
	return nil
}

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
