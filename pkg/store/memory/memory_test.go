package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/store"
	"github.com/gpodder/mygpo-migrate/pkg/store/memory"
)

func TestFindMissReturnsNilNil(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	p, err := st.FindPodcastByOldID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, p)

	u, err := st.GetUser(ctx, documents.NewUserID())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateAssignsIdentityAndRevision(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(42)
	p := &documents.Podcast{OldID: &oldID}
	require.NoError(t, st.CreatePodcast(ctx, p))
	assert.False(t, p.ID.IsZero())
	assert.Equal(t, int64(1), p.Rev)
}

func TestSaveBumpsRevision(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(42)
	p := &documents.Podcast{OldID: &oldID}
	require.NoError(t, st.CreatePodcast(ctx, p))

	p.URLs = append(p.URLs, "http://example.com/feed.xml")
	require.NoError(t, st.SavePodcast(ctx, p))
	assert.Equal(t, int64(2), p.Rev)

	stored, err := st.GetPodcast(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Rev)
	assert.Equal(t, []string{"http://example.com/feed.xml"}, stored.URLs)
}

func TestSaveStaleRevisionConflicts(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(42)
	p := &documents.Podcast{OldID: &oldID}
	require.NoError(t, st.CreatePodcast(ctx, p))

	stale, err := st.GetPodcast(ctx, p.ID)
	require.NoError(t, err)

	p.URLs = append(p.URLs, "http://example.com/feed.xml")
	require.NoError(t, st.SavePodcast(ctx, p))

	stale.URLs = append(stale.URLs, "http://other.example.com/feed.xml")
	err = st.SavePodcast(ctx, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)

	// The losing write left no trace.
	stored, err := st.GetPodcast(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/feed.xml"}, stored.URLs)
}

func TestReturnedDocumentsAreIsolated(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(5)
	u := &documents.User{OldID: &oldID, Username: "alice", Devices: []documents.Device{{ID: "d1", UID: "phone"}}}
	require.NoError(t, st.CreateUser(ctx, u))

	got, err := st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	got.Devices[0].Name = "mutated"
	got.Username = "mutated"

	fresh, err := st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Username)
	assert.Empty(t, fresh.Devices[0].Name, "mutating a returned copy must not touch the stored document")
}

func TestFindDevice(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(5)
	u := &documents.User{OldID: &oldID, Username: "alice", Devices: []documents.Device{{ID: "d1", UID: "phone"}}}
	require.NoError(t, st.CreateUser(ctx, u))

	d, err := st.FindDevice(ctx, u.ID, "phone")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "d1", d.ID)

	d, err = st.FindDevice(ctx, u.ID, "laptop")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = st.FindDevice(ctx, documents.NewUserID(), "phone")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDeletePodcast(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	oldID := int64(42)
	p := &documents.Podcast{OldID: &oldID}
	require.NoError(t, st.CreatePodcast(ctx, p))
	require.NoError(t, st.DeletePodcast(ctx, p.ID))

	gone, err := st.FindPodcastByOldID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
