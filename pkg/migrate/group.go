package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// MigrateGroup returns the document for the given relational podcast group,
// creating it when none exists yet. Groups carry a single scalar field, so
// there is no sparse variant.
func (m *Migrator) MigrateGroup(ctx context.Context, oldg *models.PodcastGroup) (*documents.PodcastGroup, error) {
	g, err := m.store.FindGroupByOldID(ctx, oldg.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up group %d: %w", oldg.ID, err)
	}
	if g != nil {
		return g, nil
	}
	oldID := oldg.ID
	g = &documents.PodcastGroup{OldID: &oldID}
	if err := m.store.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("creating group %d: %w", oldID, err)
	}
	if _, err := m.UpdateGroup(ctx, oldg, g); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGroup reconciles the group's title and saves when it changed,
// retrying on revision conflicts. It reports whether a save happened.
func (m *Migrator) UpdateGroup(ctx context.Context, oldg *models.PodcastGroup, newg *documents.PodcastGroup) (bool, error) {
	saved := false
	err := retryOnConflict(ctx, m.retries, func(ctx context.Context) error {
		if !assignPtr(&newg.Title, oldg.Title) {
			return nil
		}
		if err := m.store.SaveGroup(ctx, newg); err != nil {
			if errors.Is(err, store.ErrConflict) {
				if ferr := m.refreshGroup(ctx, newg); ferr != nil {
					return ferr
				}
			}
			return fmt.Errorf("saving group %d: %w", oldg.ID, err)
		}
		saved = true
		return nil
	})
	return saved, err
}

// addPodcastToGroup makes the group the authority over membership: the
// podcast id is appended to the group document first, and only then is the
// back-reference recorded on the podcast. Conflicting group saves are
// replayed against the winning revision, where the membership check runs
// again.
func (m *Migrator) addPodcastToGroup(ctx context.Context, group *documents.PodcastGroup, p *documents.Podcast) error {
	err := retryOnConflict(ctx, m.retries, func(ctx context.Context) error {
		if !group.Contains(p.ID) {
			group.Podcasts = append(group.Podcasts, p.ID)
			if err := m.store.SaveGroup(ctx, group); err != nil {
				if errors.Is(err, store.ErrConflict) {
					if ferr := m.refreshGroup(ctx, group); ferr != nil {
						return ferr
					}
				}
				return fmt.Errorf("adding podcast %s to group %s: %w", p.ID, group.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	gid := group.ID
	p.Group = &gid
	return nil
}

func (m *Migrator) refreshGroup(ctx context.Context, g *documents.PodcastGroup) error {
	fresh, err := m.store.GetGroup(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("re-fetching group %s: %w", g.ID, err)
	}
	if fresh == nil {
		return fmt.Errorf("group %s disappeared while retrying", g.ID)
	}
	*g = *fresh
	return nil
}
