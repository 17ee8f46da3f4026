package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gpodder/mygpo-migrate/pkg/documents"
	"github.com/gpodder/mygpo-migrate/pkg/models"
	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// MigrateUser returns the document for the given relational user, creating
// it when none exists yet. Users are create-once: the username is written
// at creation and never reconciled afterwards.
func (m *Migrator) MigrateUser(ctx context.Context, oldu *models.User) (*documents.User, error) {
	u, err := m.store.FindUserByOldID(ctx, oldu.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", oldu.ID, err)
	}
	if u != nil {
		return u, nil
	}
	oldID := oldu.ID
	u = &documents.User{OldID: &oldID, Username: oldu.Username}
	if err := m.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user %d: %w", oldID, err)
	}
	return u, nil
}

// MigrateDevice returns the device sub-document for the given relational
// device, attaching a new one to its owner when none exists yet. Device
// identity within a user is the uid; the device id is a fresh uuid assigned
// at attach time. owner may be nil, in which case it is resolved (and
// migrated if needed) from the relational device's user.
func (m *Migrator) MigrateDevice(ctx context.Context, oldd *models.Device, owner *documents.User) (*documents.Device, error) {
	if owner == nil {
		if oldd.User == nil {
			return nil, fmt.Errorf("device %d has no user loaded", oldd.ID)
		}
		var err error
		owner, err = m.MigrateUser(ctx, oldd.User)
		if err != nil {
			return nil, err
		}
	}

	d, err := m.store.FindDevice(ctx, owner.ID, oldd.UID)
	if err != nil {
		return nil, fmt.Errorf("looking up device %q of user %s: %w", oldd.UID, owner.ID, err)
	}
	if d != nil {
		return d, nil
	}

	oldID := oldd.ID
	err = retryOnConflict(ctx, m.retries, func(ctx context.Context) error {
		// A conflict refresh may have brought in a concurrently attached
		// device with the same uid.
		if owner.FindDevice(oldd.UID) == nil {
			owner.Devices = append(owner.Devices, documents.Device{
				ID:      uuid.NewString(),
				OldID:   &oldID,
				UID:     oldd.UID,
				Name:    oldd.Name,
				Type:    oldd.Type,
				Deleted: oldd.Deleted,
			})
			if err := m.store.SaveUser(ctx, owner); err != nil {
				if errors.Is(err, store.ErrConflict) {
					if ferr := m.refreshUser(ctx, owner); ferr != nil {
						return ferr
					}
				}
				return fmt.Errorf("attaching device %q to user %s: %w", oldd.UID, owner.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner.FindDevice(oldd.UID), nil
}

func (m *Migrator) refreshUser(ctx context.Context, u *documents.User) error {
	fresh, err := m.store.GetUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("re-fetching user %s: %w", u.ID, err)
	}
	if fresh == nil {
		return fmt.Errorf("user %s disappeared while retrying", u.ID)
	}
	*u = *fresh
	return nil
}
