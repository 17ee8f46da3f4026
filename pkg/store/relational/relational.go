// Package relational reads the old gpodder.net schema through GORM. The
// migration never writes here; the source is queries plus batched listing
// for backfill runs.
package relational

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gpodder/mygpo-migrate/pkg/models"
)

// Source is the read-only view of the relational store.
type Source struct {
	db *gorm.DB
}

// New opens a PostgreSQL connection for the given DSN.
func New(dsn string) (*Source, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Source{db: db}, nil
}

// NewWithDB wraps an existing gorm connection. Tests use this with an
// in-memory SQLite database.
func NewWithDB(db *gorm.DB) *Source {
	return &Source{db: db}
}

// Close closes the underlying connection.
func (s *Source) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RelatedPodcasts returns the podcasts related to the given podcast, i.e.
// the rel side of every RelatedPodcast row referencing it. The row set is
// deduplicated by podcast id.
func (s *Source) RelatedPodcasts(ctx context.Context, podcastID int64) ([]models.Podcast, error) {
	var rows []models.RelatedPodcast
	err := s.db.WithContext(ctx).
		Preload("RelPodcast").
		Where("ref_podcast_id = ?", podcastID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(rows))
	var podcasts []models.Podcast
	for _, row := range rows {
		if row.RelPodcast == nil || seen[row.RelPodcast.ID] {
			continue
		}
		seen[row.RelPodcast.ID] = true
		podcasts = append(podcasts, *row.RelPodcast)
	}
	return podcasts, nil
}

// HistoricData returns all subscriber-count samples for the podcast,
// ordered by date ascending.
func (s *Source) HistoricData(ctx context.Context, podcastID int64) ([]models.HistoricPodcastData, error) {
	var rows []models.HistoricPodcastData
	err := s.db.WithContext(ctx).
		Where("podcast_id = ?", podcastID).
		Order("date").
		Find(&rows).Error
	return rows, err
}

// ListPodcasts returns one batch of podcasts ordered by id, with their
// group association loaded.
func (s *Source) ListPodcasts(ctx context.Context, offset, limit int) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	err := s.db.WithContext(ctx).
		Preload("Group").
		Order("id").
		Offset(offset).Limit(limit).
		Find(&podcasts).Error
	return podcasts, err
}

// ListEpisodes returns one batch of episodes ordered by id, with the owning
// podcast (and its group) loaded.
func (s *Source) ListEpisodes(ctx context.Context, offset, limit int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := s.db.WithContext(ctx).
		Preload("Podcast").
		Preload("Podcast.Group").
		Order("id").
		Offset(offset).Limit(limit).
		Find(&episodes).Error
	return episodes, err
}

// ListUsers returns one batch of users ordered by id.
func (s *Source) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("id").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

// ListDevices returns one batch of devices ordered by id, with their owner
// loaded.
func (s *Source) ListDevices(ctx context.Context, offset, limit int) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("id").
		Offset(offset).Limit(limit).
		Find(&devices).Error
	return devices, err
}
