package migrate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// podcastFields is the reconcile table for podcast scalar fields. URL,
// group membership, related podcasts and subscribers are aggregates and
// handled separately.
var podcastFields = []fieldCopy[models.Podcast, documents.Podcast]{
	{"language", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.Language, o.Language) }},
	{"content_types", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.ContentTypes, o.ContentTypes) }},
	{"title", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.Title, o.Title) }},
	{"description", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.Description, o.Description) }},
	{"link", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.Link, o.Link) }},
	{"last_update", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.LastUpdate, o.LastUpdate) }},
	{"logo_url", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.LogoURL, o.LogoURL) }},
	{"author", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.Author, o.Author) }},
	{"group_member_name", func(o *models.Podcast, d *documents.Podcast) bool { return assignPtr(&d.GroupMemberName, o.GroupMemberName) }},
}

// MigratePodcast returns the document for the given relational podcast,
// creating and fully populating it when none exists yet.
func (m *Migrator) MigratePodcast(ctx context.Context, oldp *models.Podcast) (*documents.Podcast, error) {
	p, err := m.store.FindPodcastByOldID(ctx, oldp.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up podcast %d: %w", oldp.ID, err)
	}
	if p != nil {
		return p, nil
	}
	return m.CreatePodcast(ctx, oldp, false)
}

// UpsertPodcast creates the document when absent and reconciles an existing
// one otherwise. It is the operation behind both the bulk backfill and the
// saved-hook.
func (m *Migrator) UpsertPodcast(ctx context.Context, oldp *models.Podcast) (*documents.Podcast, error) {
	p, err := m.store.FindPodcastByOldID(ctx, oldp.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up podcast %d: %w", oldp.ID, err)
	}
	if p == nil {
		return m.CreatePodcast(ctx, oldp, false)
	}
	if _, err := m.UpdatePodcast(ctx, oldp, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePodcast creates the document for a relational podcast. A sparse
// create persists only the identity (oldid) and defers field population to
// a later reconcile; it is used when the podcast is merely referenced from
// another document being migrated.
func (m *Migrator) CreatePodcast(ctx context.Context, oldp *models.Podcast, sparse bool) (*documents.Podcast, error) {
	oldID := oldp.ID
	p := &documents.Podcast{OldID: &oldID}
	if err := m.store.CreatePodcast(ctx, p); err != nil {
		return nil, fmt.Errorf("creating podcast %d: %w", oldID, err)
	}
	if !sparse {
		if _, err := m.UpdatePodcast(ctx, oldp, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdatePodcast reconciles the relational podcast onto its document and
// saves when anything changed, retrying on revision conflicts with a fresh
// copy. It reports whether a save happened. The document is updated in
// place, including the revision of the winning save.
func (m *Migrator) UpdatePodcast(ctx context.Context, oldp *models.Podcast, newp *documents.Podcast) (bool, error) {
	saved := false
	err := retryOnConflict(ctx, m.retries, func(ctx context.Context) error {
		changed, err := m.reconcilePodcast(ctx, oldp, newp)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := m.store.SavePodcast(ctx, newp); err != nil {
			if errors.Is(err, store.ErrConflict) {
				if ferr := m.refreshPodcast(ctx, newp); ferr != nil {
					return ferr
				}
			}
			return fmt.Errorf("saving podcast %d: %w", oldp.ID, err)
		}
		saved = true
		return nil
	})
	return saved, err
}

// reconcilePodcast folds everything the relational podcast knows into the
// document: related podcasts, group membership, subscriber history, the
// scalar field table and the feed url. It reports whether the document
// changed.
func (m *Migrator) reconcilePodcast(ctx context.Context, oldp *models.Podcast, newp *documents.Podcast) (bool, error) {
	changed := false

	rel, err := m.source.RelatedPodcasts(ctx, oldp.ID)
	if err != nil {
		return false, fmt.Errorf("loading related podcasts of %d: %w", oldp.ID, err)
	}
	relIDs := make([]documents.PodcastID, 0, len(rel))
	for i := range rel {
		id, err := m.podcastIDFor(ctx, &rel[i])
		if err != nil {
			return false, err
		}
		relIDs = append(relIDs, id)
	}
	if !samePodcastIDSet(newp.RelatedPodcasts, relIDs) {
		newp.RelatedPodcasts = relIDs
		changed = true
	}

	if oldp.Group != nil {
		group, err := m.MigrateGroup(ctx, oldp.Group)
		if err != nil {
			return false, err
		}
		if !group.Contains(newp.ID) {
			if err := m.addPodcastToGroup(ctx, group, newp); err != nil {
				return false, err
			}
			changed = true
		} else if newp.Group == nil || *newp.Group != group.ID {
			gid := group.ID
			newp.Group = &gid
			changed = true
		}
	}

	hist, err := m.source.HistoricData(ctx, oldp.ID)
	if err != nil {
		return false, fmt.Errorf("loading subscriber history of %d: %w", oldp.ID, err)
	}
	if len(hist) > 0 && len(newp.Subscribers) != len(hist) {
		newp.Subscribers = mergeSubscribers(newp.Subscribers, hist)
		changed = true
	}

	if applyFields(podcastFields, oldp, newp) {
		changed = true
	}

	if !newp.HasURL(oldp.URL) {
		newp.URLs = append(newp.URLs, oldp.URL)
		changed = true
	}

	return changed, nil
}

// podcastIDFor resolves a relational podcast to its document id, sparse-
// creating the document when it does not exist yet.
func (m *Migrator) podcastIDFor(ctx context.Context, oldp *models.Podcast) (documents.PodcastID, error) {
	p, err := m.store.FindPodcastByOldID(ctx, oldp.ID)
	if err != nil {
		return documents.PodcastID{}, fmt.Errorf("looking up podcast %d: %w", oldp.ID, err)
	}
	if p == nil {
		p, err = m.CreatePodcast(ctx, oldp, true)
		if err != nil {
			return documents.PodcastID{}, err
		}
	}
	return p.ID, nil
}

// samePodcastIDSet compares two id lists ignoring order.
func samePodcastIDSet(a, b []documents.PodcastID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[documents.PodcastID]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

// mergeSubscribers merges historic subscriber-count rows into the existing
// samples. Only Sunday samples are kept, timestamps are normalized to
// midnight, and the result is deduplicated and sorted ascending.
func mergeSubscribers(existing []documents.SubscriberData, rows []models.HistoricPodcastData) []documents.SubscriberData {
	merged := append([]documents.SubscriberData(nil), existing...)
	for _, row := range rows {
		if row.Date.Weekday() != time.Sunday {
			continue
		}
		d := row.Date
		merged = append(merged, documents.SubscriberData{
			Timestamp:       time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()),
			SubscriberCount: row.SubscriberCount,
		})
	}
	seen := make(map[documents.SubscriberData]struct{}, len(merged))
	out := make([]documents.SubscriberData, 0, len(merged))
	for _, s := range merged {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (m *Migrator) refreshPodcast(ctx context.Context, p *documents.Podcast) error {
	fresh, err := m.store.GetPodcast(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("re-fetching podcast %s: %w", p.ID, err)
	}
	if fresh == nil {
		return fmt.Errorf("podcast %s disappeared while retrying", p.ID)
	}
	*p = *fresh
	return nil
}
