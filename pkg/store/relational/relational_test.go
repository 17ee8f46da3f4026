package relational_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store/relational"
)

func newTestSource(t *testing.T) (*relational.Source, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.PodcastGroup{},
		&models.Podcast{},
		&models.Episode{},
		&models.User{},
		&models.Device{},
		&models.HistoricPodcastData{},
		&models.RelatedPodcast{},
	))
	return relational.NewWithDB(db), db
}

func TestRelatedPodcastsDeduplicates(t *testing.T) {
	src, db := newTestSource(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Podcast{ID: 1, URL: "http://a.example.com/feed.xml"}).Error)
	require.NoError(t, db.Create(&models.Podcast{ID: 2, URL: "http://b.example.com/feed.xml"}).Error)
	require.NoError(t, db.Create(&models.RelatedPodcast{ID: 1, RefPodcastID: 1, RelPodcastID: 2}).Error)
	require.NoError(t, db.Create(&models.RelatedPodcast{ID: 2, RefPodcastID: 1, RelPodcastID: 2}).Error)

	rel, err := src.RelatedPodcasts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rel, 1, "duplicate relation rows collapse to one podcast")
	assert.Equal(t, int64(2), rel[0].ID)
	assert.Equal(t, "http://b.example.com/feed.xml", rel[0].URL)

	rel, err = src.RelatedPodcasts(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, rel)
}

func TestHistoricDataOrdered(t *testing.T) {
	src, db := newTestSource(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.HistoricPodcastData{ID: 1, PodcastID: 1, Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), SubscriberCount: 120}).Error)
	require.NoError(t, db.Create(&models.HistoricPodcastData{ID: 2, PodcastID: 1, Date: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), SubscriberCount: 100}).Error)
	require.NoError(t, db.Create(&models.HistoricPodcastData{ID: 3, PodcastID: 2, Date: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), SubscriberCount: 7}).Error)

	rows, err := src.HistoricData(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100, rows[0].SubscriberCount, "rows come back date ascending")
	assert.Equal(t, 120, rows[1].SubscriberCount)
}

func TestListPodcastsBatchesWithGroup(t *testing.T) {
	src, db := newTestSource(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.PodcastGroup{ID: 7, Title: strptr("Example Shows")}).Error)
	gid := int64(7)
	for i := int64(1); i <= 3; i++ {
		p := models.Podcast{ID: i, URL: "http://example.com/feed.xml"}
		if i == 1 {
			p.GroupID = &gid
		}
		require.NoError(t, db.Create(&p).Error)
	}

	batch, err := src.ListPodcasts(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].ID)
	require.NotNil(t, batch[0].Group, "group association is preloaded")
	assert.Equal(t, int64(7), batch[0].Group.ID)

	batch, err = src.ListPodcasts(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(3), batch[0].ID)
}

func TestListEpisodesPreloadsPodcast(t *testing.T) {
	src, db := newTestSource(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Podcast{ID: 1, URL: "http://example.com/feed.xml"}).Error)
	require.NoError(t, db.Create(&models.Episode{ID: 100, PodcastID: 1, URL: "http://example.com/ep1.mp3"}).Error)

	batch, err := src.ListEpisodes(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NotNil(t, batch[0].Podcast)
	assert.Equal(t, int64(1), batch[0].Podcast.ID)
}

func TestListDevicesPreloadsUser(t *testing.T) {
	src, db := newTestSource(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: 5, Username: "alice"}).Error)
	require.NoError(t, db.Create(&models.Device{ID: 9, UserID: 5, UID: "phone"}).Error)

	batch, err := src.ListDevices(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NotNil(t, batch[0].User)
	assert.Equal(t, "alice", batch[0].User.Username)
}

func strptr(s string) *string { return &s }
