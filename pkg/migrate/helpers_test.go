package migrate_test

import (
	"context"

	"github.com/gpodder/mygpo-migrate/pkg/migrate"
	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store/memory"
)

// stubSource serves canned related-podcast and subscriber-history rows.
type stubSource struct {
	related map[int64][]models.Podcast
	history map[int64][]models.HistoricPodcastData
}

func (s *stubSource) RelatedPodcasts(ctx context.Context, podcastID int64) ([]models.Podcast, error) {
	return s.related[podcastID], nil
}

func (s *stubSource) HistoricData(ctx context.Context, podcastID int64) ([]models.HistoricPodcastData, error) {
	return s.history[podcastID], nil
}

func newTestMigrator() (*migrate.Migrator, *memory.Store, *stubSource) {
	st := memory.New()
	src := &stubSource{
		related: map[int64][]models.Podcast{},
		history: map[int64][]models.HistoricPodcastData{},
	}
	return migrate.New(st, src, 0), st, src
}

func strptr(s string) *string { return &s }

func i64ptr(i int64) *int64 { return &i }
