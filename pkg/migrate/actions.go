package migrate

import (
	"context"
	"fmt"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/models"
)

// ConvertEpisodeAction maps a relational playback event to its document
// form. The device stays a relational id; resolving it against a user
// document is left to the consumer, so the conversion is pure.
func ConvertEpisodeAction(old *models.EpisodeAction) documents.EpisodeAction {
	a := documents.EpisodeAction{
		Action:    clonePtr(old.Action),
		Timestamp: clonePtr(old.Timestamp),
		Started:   clonePtr(old.Started),
		Playmark:  clonePtr(old.Playmark),
	}
	if old.Device != nil {
		id := old.Device.ID
		a.DeviceOldID = &id
	} else {
		a.DeviceOldID = clonePtr(old.DeviceID)
	}
	return a
}

// ConvertSubscriptionAction maps a relational subscribe/unsubscribe event
// to its document form. The integer action code becomes a string, and the
// referenced device is migrated eagerly so the result carries a resolved
// device document id. The relational action's Device (and its User) must be
// loaded.
func (m *Migrator) ConvertSubscriptionAction(ctx context.Context, old *models.SubscriptionAction) (*documents.SubscriptionAction, error) {
	if old.Device == nil {
		return nil, fmt.Errorf("subscription action %d has no device loaded", old.ID)
	}
	d, err := m.MigrateDevice(ctx, old.Device, nil)
	if err != nil {
		return nil, err
	}
	action := "unsubscribe"
	if old.Action == models.SubscriptionActionSubscribe {
		action = "subscribe"
	}
	return &documents.SubscriptionAction{
		Action:    action,
		Timestamp: clonePtr(old.Timestamp),
		Device:    d.ID,
	}, nil
}

// ResolveBlacklist maps blacklist entries to document ids, sparse-creating
// any podcast that has not been migrated yet. Input order is preserved.
// Each entry's Podcast association must be loaded.
func (m *Migrator) ResolveBlacklist(ctx context.Context, entries []models.BlacklistEntry) ([]documents.PodcastID, error) {
	ids := make([]documents.PodcastID, 0, len(entries))
	for i := range entries {
		if entries[i].Podcast == nil {
			return nil, fmt.Errorf("blacklist entry %d has no podcast loaded", entries[i].ID)
		}
		id, err := m.podcastIDFor(ctx, entries[i].Podcast)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ConvertRatings maps relational rating rows to their document form.
func ConvertRatings(old []models.Rating) []documents.Rating {
	ratings := make([]documents.Rating, 0, len(old))
	for _, r := range old {
		ratings = append(ratings, documents.Rating{
			Rating:    r.Rating,
			Timestamp: clonePtr(r.Timestamp),
		})
	}
	return ratings
}
