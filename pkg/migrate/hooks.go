package migrate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gpodder/mygpo-migrate/pkg/models"
)

// Hooks adapts relational change events to migration operations. The
// migration is best-effort: a hook must never fail the save or delete that
// triggered it, so every error is logged and swallowed.
type Hooks struct {
	m   *Migrator
	log zerolog.Logger
}

// NewHooks creates the change-event adapter around a Migrator.
func NewHooks(m *Migrator, log zerolog.Logger) *Hooks {
	return &Hooks{m: m, log: log}
}

// OnPodcastSaved mirrors a relational podcast save into the document store,
// creating the document when absent and reconciling it otherwise.
func (h *Hooks) OnPodcastSaved(ctx context.Context, oldp *models.Podcast) {
	if oldp == nil {
		return
	}
	if _, err := h.m.UpsertPodcast(ctx, oldp); err != nil {
		h.log.Error().Err(err).Int64("oldid", oldp.ID).Msg("podcast save hook failed")
	}
}

// OnPodcastDeleted removes the document mirroring a deleted relational
// podcast. A podcast that was never migrated is a no-op.
func (h *Hooks) OnPodcastDeleted(ctx context.Context, oldp *models.Podcast) {
	if oldp == nil {
		return
	}
	if err := h.podcastDeleted(ctx, oldp); err != nil {
		h.log.Error().Err(err).Int64("oldid", oldp.ID).Msg("podcast delete hook failed")
	}
}

func (h *Hooks) podcastDeleted(ctx context.Context, oldp *models.Podcast) error {
	p, err := h.m.store.FindPodcastByOldID(ctx, oldp.ID)
	if err != nil {
		return fmt.Errorf("looking up podcast %d: %w", oldp.ID, err)
	}
	if p == nil {
		return nil
	}
	if err := h.m.store.DeletePodcast(ctx, p.ID); err != nil {
		return fmt.Errorf("deleting podcast %s: %w", p.ID, err)
	}
	return nil
}

// OnEpisodeSaved mirrors a relational episode save into the document store.
func (h *Hooks) OnEpisodeSaved(ctx context.Context, olde *models.Episode) {
	if olde == nil {
		return
	}
	if _, err := h.m.UpsertEpisode(ctx, olde); err != nil {
		h.log.Error().Err(err).Int64("oldid", olde.ID).Msg("episode save hook failed")
	}
}
