package migrate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpodder/mygpo-migrate/pkg/models"
)

func testEpisode() *models.Episode {
	released := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	return &models.Episode{
		ID:        100,
		PodcastID: 42,
		Podcast:   &models.Podcast{ID: 42, URL: "http://example.com/feed.xml"},
		URL:       "http://example.com/ep1.mp3",
		Title:     strptr("Episode One"),
		Duration:  i64ptr(1800),
		Mimetype:  "audio/mpeg",
		Timestamp: &released,
	}
}

func TestMigrateEpisodeMigratesItsPodcast(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	e, err := m.MigrateEpisode(ctx, testEpisode())
	require.NoError(t, err)

	p, err := st.FindPodcastByOldID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, p, "the owning podcast is migrated first")
	assert.Equal(t, p.ID, e.Podcast)

	require.NotNil(t, e.OldID)
	assert.Equal(t, int64(100), *e.OldID)
	assert.Equal(t, []string{"http://example.com/ep1.mp3"}, e.URLs)
	assert.Equal(t, []string{"audio/mpeg"}, e.Mimetypes)
	require.NotNil(t, e.Title)
	assert.Equal(t, "Episode One", *e.Title)
	require.NotNil(t, e.Duration)
	assert.Equal(t, int64(1800), *e.Duration)
	require.NotNil(t, e.Released)
	assert.Equal(t, time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC), *e.Released)
}

func TestMigrateEpisodeRequiresLoadedPodcast(t *testing.T) {
	m, _, _ := newTestMigrator()

	olde := testEpisode()
	olde.Podcast = nil
	_, err := m.MigrateEpisode(context.Background(), olde)
	require.Error(t, err)
}

func TestUpdateEpisodeURLOnlyChangePersists(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	_, err := m.MigrateEpisode(ctx, testEpisode())
	require.NoError(t, err)

	// The same episode row under a new enclosure url. No scalar field
	// changes, so the appended url alone must mark the document dirty.
	moved := testEpisode()
	moved.URL = "http://cdn.example.com/ep1.mp3"
	_, err = m.UpsertEpisode(ctx, moved)
	require.NoError(t, err)

	stored, err := st.FindEpisodeByOldID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/ep1.mp3", "http://cdn.example.com/ep1.mp3"}, stored.URLs)
}

func TestUpdateEpisodeIsIdempotent(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	first, err := m.MigrateEpisode(ctx, testEpisode())
	require.NoError(t, err)

	saves := st.Saves
	again, err := m.UpsertEpisode(ctx, testEpisode())
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, saves, st.Saves, "an unchanged record must not save")
}

func TestUpdateEpisodeAccumulatesMimetypes(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	_, err := m.MigrateEpisode(ctx, testEpisode())
	require.NoError(t, err)

	ogg := testEpisode()
	ogg.Mimetype = "audio/ogg"
	_, err = m.UpsertEpisode(ctx, ogg)
	require.NoError(t, err)

	stored, err := st.FindEpisodeByOldID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"audio/mpeg", "audio/ogg"}, stored.Mimetypes)

	// An empty mimetype contributes nothing.
	none := testEpisode()
	none.Mimetype = ""
	_, err = m.UpsertEpisode(ctx, none)
	require.NoError(t, err)
	stored, err = st.FindEpisodeByOldID(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, stored.Mimetypes, 2)
}

func TestUpdateEpisodeOutdatedFlag(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	_, err := m.MigrateEpisode(ctx, testEpisode())
	require.NoError(t, err)

	gone := testEpisode()
	gone.Outdated = true
	_, err = m.UpsertEpisode(ctx, gone)
	require.NoError(t, err)

	stored, err := st.FindEpisodeByOldID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, stored.Outdated)
}
