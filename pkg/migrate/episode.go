package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// episodeFields is the reconcile table for episode scalar fields. URLs and
// mimetypes are append-only sets handled separately.
var episodeFields = []fieldCopy[models.Episode, documents.Episode]{
	{"title", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Title, o.Title) }},
	{"description", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Description, o.Description) }},
	{"link", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Link, o.Link) }},
	{"author", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Author, o.Author) }},
	{"duration", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Duration, o.Duration) }},
	{"filesize", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Filesize, o.Filesize) }},
	{"language", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Language, o.Language) }},
	{"last_update", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.LastUpdate, o.LastUpdate) }},
	{"outdated", func(o *models.Episode, d *documents.Episode) bool { return assign(&d.Outdated, o.Outdated) }},
	{"released", func(o *models.Episode, d *documents.Episode) bool { return assignPtr(&d.Released, o.Timestamp) }},
}

// MigrateEpisode returns the document for the given relational episode,
// creating and fully populating it when none exists yet. The episode's
// Podcast association must be loaded.
func (m *Migrator) MigrateEpisode(ctx context.Context, olde *models.Episode) (*documents.Episode, error) {
	e, err := m.store.FindEpisodeByOldID(ctx, olde.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up episode %d: %w", olde.ID, err)
	}
	if e != nil {
		return e, nil
	}
	return m.CreateEpisode(ctx, olde, false)
}

// UpsertEpisode creates the document when absent and reconciles an existing
// one otherwise.
func (m *Migrator) UpsertEpisode(ctx context.Context, olde *models.Episode) (*documents.Episode, error) {
	e, err := m.store.FindEpisodeByOldID(ctx, olde.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up episode %d: %w", olde.ID, err)
	}
	if e == nil {
		return m.CreateEpisode(ctx, olde, false)
	}
	if _, err := m.UpdateEpisode(ctx, olde, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEpisode creates the document for a relational episode. The owning
// podcast is migrated first so the episode can reference it; even a sparse
// create carries the podcast reference and the feed url, since an episode
// without either is unusable.
func (m *Migrator) CreateEpisode(ctx context.Context, olde *models.Episode, sparse bool) (*documents.Episode, error) {
	if olde.Podcast == nil {
		return nil, fmt.Errorf("episode %d has no podcast loaded", olde.ID)
	}
	podcast, err := m.MigratePodcast(ctx, olde.Podcast)
	if err != nil {
		return nil, err
	}
	oldID := olde.ID
	e := &documents.Episode{
		OldID:   &oldID,
		Podcast: podcast.ID,
		URLs:    []string{olde.URL},
	}
	if err := m.store.CreateEpisode(ctx, e); err != nil {
		return nil, fmt.Errorf("creating episode %d: %w", oldID, err)
	}
	if !sparse {
		if _, err := m.UpdateEpisode(ctx, olde, e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// UpdateEpisode reconciles the relational episode onto its document and
// saves when anything changed, retrying on revision conflicts with a fresh
// copy. A new url or mimetype marks the document dirty like any scalar
// field, so an update that only adds a url still persists.
func (m *Migrator) UpdateEpisode(ctx context.Context, olde *models.Episode, newe *documents.Episode) (bool, error) {
	saved := false
	err := retryOnConflict(ctx, m.retries, func(ctx context.Context) error {
		changed := false
		if !newe.HasURL(olde.URL) {
			newe.URLs = append(newe.URLs, olde.URL)
			changed = true
		}
		if applyFields(episodeFields, olde, newe) {
			changed = true
		}
		if olde.Mimetype != "" && !newe.HasMimetype(olde.Mimetype) {
			newe.Mimetypes = append(newe.Mimetypes, olde.Mimetype)
			changed = true
		}
		if !changed {
			return nil
		}
		if err := m.store.SaveEpisode(ctx, newe); err != nil {
			if errors.Is(err, store.ErrConflict) {
				if ferr := m.refreshEpisode(ctx, newe); ferr != nil {
					return ferr
				}
			}
			return fmt.Errorf("saving episode %d: %w", olde.ID, err)
		}
		saved = true
		return nil
	})
	return saved, err
}

func (m *Migrator) refreshEpisode(ctx context.Context, e *documents.Episode) error {
	fresh, err := m.store.GetEpisode(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("re-fetching episode %s: %w", e.ID, err)
	}
	if fresh == nil {
		return fmt.Errorf("episode %s disappeared while retrying", e.ID)
	}
	*e = *fresh
	return nil
}
