package migrate_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpodder/mygpo-migrate/pkg/models"
)

func TestMigrateUserCreateOnce(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	u, err := m.MigrateUser(ctx, &models.User{ID: 5, Username: "alice"})
	require.NoError(t, err)
	require.NotNil(t, u.OldID)
	assert.Equal(t, int64(5), *u.OldID)
	assert.Equal(t, "alice", u.Username)

	// Users are never reconciled after creation; a renamed relational row
	// still resolves to the original document.
	saves := st.Saves
	again, err := m.MigrateUser(ctx, &models.User{ID: 5, Username: "alice2"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "alice", again.Username)
	assert.Equal(t, saves, st.Saves)
}

func TestMigrateDeviceAttachesToOwner(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	oldd := &models.Device{
		ID:     9,
		UserID: 5,
		User:   &models.User{ID: 5, Username: "alice"},
		UID:    "phone",
		Name:   "Alice's phone",
		Type:   "mobile",
	}

	d, err := m.MigrateDevice(ctx, oldd, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "phone", d.UID)
	assert.Equal(t, "Alice's phone", d.Name)
	assert.Equal(t, "mobile", d.Type)
	require.NotNil(t, d.OldID)
	assert.Equal(t, int64(9), *d.OldID)

	_, err = uuid.Parse(d.ID)
	assert.NoError(t, err, "device id is a uuid assigned at attach time")

	u, err := st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	require.Len(t, u.Devices, 1, "the owner was created implicitly and holds the device")
}

func TestMigrateDeviceIsIdempotent(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	oldd := &models.Device{ID: 9, UserID: 5, User: &models.User{ID: 5, Username: "alice"}, UID: "phone"}

	first, err := m.MigrateDevice(ctx, oldd, nil)
	require.NoError(t, err)

	again, err := m.MigrateDevice(ctx, oldd, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "the assigned uuid is stable across runs")

	u, err := st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, u.Devices, 1)
}

func TestMigrateDeviceCompoundKey(t *testing.T) {
	m, st, _ := newTestMigrator()
	ctx := context.Background()

	// Two users may each own a device with the same uid; identity is
	// (user, uid), not uid alone.
	alicePhone, err := m.MigrateDevice(ctx, &models.Device{
		ID: 9, UserID: 5, User: &models.User{ID: 5, Username: "alice"}, UID: "phone",
	}, nil)
	require.NoError(t, err)

	bobPhone, err := m.MigrateDevice(ctx, &models.Device{
		ID: 10, UserID: 6, User: &models.User{ID: 6, Username: "bob"}, UID: "phone",
	}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, alicePhone.ID, bobPhone.ID)

	alice, err := st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	bob, err := st.FindUserByOldID(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, alice.Devices, 1)
	assert.Len(t, bob.Devices, 1)

	// A second device of the same user with a different uid coexists.
	_, err = m.MigrateDevice(ctx, &models.Device{
		ID: 11, UserID: 5, User: &models.User{ID: 5, Username: "alice"}, UID: "laptop",
	}, nil)
	require.NoError(t, err)
	alice, err = st.FindUserByOldID(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, alice.Devices, 2)
}

func TestMigrateDeviceRequiresUser(t *testing.T) {
	m, _, _ := newTestMigrator()

	_, err := m.MigrateDevice(context.Background(), &models.Device{ID: 9, UserID: 5, UID: "phone"}, nil)
	require.Error(t, err)
}
