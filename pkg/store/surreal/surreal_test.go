//go:build integration

// Integration tests against a live SurrealDB instance. Run with:
//
//	SURREALDB_URL=ws://localhost:8000/rpc go test -tags integration ./pkg/store/surreal/...
package surreal_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/store"
	"github.com/gpodder/mygpo-migrate/pkg/store/surreal"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newTestStore(t *testing.T) *surreal.Store {
	t.Helper()
	st, err := surreal.New(
		getenv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		getenv("SURREALDB_NS", "mygpo_test"),
		getenv("SURREALDB_DB", "mygpo_test"),
		getenv("SURREALDB_USER", "root"),
		getenv("SURREALDB_PASS", "root"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestPodcastRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	oldID := int64(987654)
	p := &documents.Podcast{OldID: &oldID, URLs: []string{"http://example.com/feed.xml"}}
	require.NoError(t, st.CreatePodcast(ctx, p))
	t.Cleanup(func() { st.DeletePodcast(ctx, p.ID) })

	assert.False(t, p.ID.IsZero())
	assert.Equal(t, int64(1), p.Rev)

	found, err := st.FindPodcastByOldID(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, []string{"http://example.com/feed.xml"}, found.URLs)

	found.URLs = append(found.URLs, "http://mirror.example.org/feed.xml")
	require.NoError(t, st.SavePodcast(ctx, found))
	assert.Equal(t, int64(2), found.Rev)
}

func TestSaveConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	oldID := int64(987655)
	p := &documents.Podcast{OldID: &oldID}
	require.NoError(t, st.CreatePodcast(ctx, p))
	t.Cleanup(func() { st.DeletePodcast(ctx, p.ID) })

	stale, err := st.GetPodcast(ctx, p.ID)
	require.NoError(t, err)

	p.URLs = []string{"http://example.com/feed.xml"}
	require.NoError(t, st.SavePodcast(ctx, p))

	stale.URLs = []string{"http://other.example.com/feed.xml"}
	err = st.SavePodcast(ctx, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestFindMissReturnsNilNil(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.FindPodcastByOldID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, p)

	u, err := st.GetUser(ctx, documents.NewUserID())
	require.NoError(t, err)
	assert.Nil(t, u)
}
