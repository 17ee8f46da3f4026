// Package documents defines the document-store side of the migration: the
// entities written to SurrealDB.
//
// Every top-level document carries two bookkeeping fields next to its domain
// data:
//
//   - OldID is the join key back to the relational record the document was
//     migrated from. It is nil for documents created natively in the document
//     store, and a lookup on it is how the migration decides between create
//     and reconcile.
//   - Rev is the document revision used for optimistic concurrency. It is 0
//     before the first save; every successful save bumps it by one, and a save
//     carrying a stale Rev fails with a conflict so the caller can re-fetch
//     and retry.
//
// SurrealDB has no CouchDB-style _rev, so the revision is an ordinary field
// and the store enforces it with a conditional update.
package documents

import "time"

// SubscriberData is one historic subscriber-count sample of a podcast.
// Samples are kept Sunday-aligned, deduplicated and sorted by timestamp.
type SubscriberData struct {
	Timestamp       time.Time `json:"timestamp"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Podcast is the document-store rendition of a podcast feed.
type Podcast struct {
	ID    PodcastID `json:"id,omitempty"`
	OldID *int64    `json:"oldid,omitempty"`
	Rev   int64     `json:"rev"`

	// URLs is an append-only set; the relational record's single url is
	// merged into it without duplicates.
	URLs []string `json:"urls,omitempty"`

	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Link            *string    `json:"link,omitempty"`
	LastUpdate      *time.Time `json:"last_update,omitempty"`
	Language        *string    `json:"language,omitempty"`
	ContentTypes    *string    `json:"content_types,omitempty"`
	LogoURL         *string    `json:"logo_url,omitempty"`
	Author          *string    `json:"author,omitempty"`
	GroupMemberName *string    `json:"group_member_name,omitempty"`

	Group           *PodcastGroupID  `json:"group,omitempty"`
	RelatedPodcasts []PodcastID      `json:"related_podcasts,omitempty"`
	Subscribers     []SubscriberData `json:"subscribers,omitempty"`
}

// HasURL reports whether url is already part of the podcast's URL set.
func (p *Podcast) HasURL(url string) bool {
	for _, u := range p.URLs {
		if u == url {
			return true
		}
	}
	return false
}

// PodcastGroup is a named set of podcasts presented as one entry.
type PodcastGroup struct {
	ID    PodcastGroupID `json:"id,omitempty"`
	OldID *int64         `json:"oldid,omitempty"`
	Rev   int64          `json:"rev"`

	Title    *string     `json:"title,omitempty"`
	Podcasts []PodcastID `json:"podcasts,omitempty"`
}

// Contains reports whether the group already holds the given podcast.
func (g *PodcastGroup) Contains(id PodcastID) bool {
	for _, p := range g.Podcasts {
		if p == id {
			return true
		}
	}
	return false
}

// Episode is the document-store rendition of a podcast episode.
type Episode struct {
	ID    EpisodeID `json:"id,omitempty"`
	OldID *int64    `json:"oldid,omitempty"`
	Rev   int64     `json:"rev"`

	Podcast PodcastID `json:"podcast"`

	URLs      []string `json:"urls,omitempty"`
	Mimetypes []string `json:"mimetypes,omitempty"`

	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Link        *string    `json:"link,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Duration    *int64     `json:"duration,omitempty"`
	Filesize    *int64     `json:"filesize,omitempty"`
	Language    *string    `json:"language,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	Outdated    bool       `json:"outdated"`

	// Released is mapped from the relational record's timestamp column.
	Released *time.Time `json:"released,omitempty"`
}

// HasURL reports whether url is already part of the episode's URL set.
func (e *Episode) HasURL(url string) bool {
	for _, u := range e.URLs {
		if u == url {
			return true
		}
	}
	return false
}

// HasMimetype reports whether mimetype is already recorded for the episode.
func (e *Episode) HasMimetype(mimetype string) bool {
	for _, m := range e.Mimetypes {
		if m == mimetype {
			return true
		}
	}
	return false
}

// User is the document-store rendition of an account. Devices live inside
// the user document rather than as top-level records.
type User struct {
	ID    UserID `json:"id,omitempty"`
	OldID *int64 `json:"oldid,omitempty"`
	Rev   int64  `json:"rev"`

	Username string   `json:"username"`
	Devices  []Device `json:"devices,omitempty"`
}

// FindDevice returns the user's device with the given uid, or nil.
func (u *User) FindDevice(uid string) *Device {
	for i := range u.Devices {
		if u.Devices[i].UID == uid {
			return &u.Devices[i]
		}
	}
	return nil
}

// Device is a sub-document of User. Its identity within a user is the uid;
// the ID is a uuid assigned when the device is first attached, so actions
// can reference the device without going through the owner.
type Device struct {
	ID      string `json:"id"`
	OldID   *int64 `json:"oldid,omitempty"`
	UID     string `json:"uid"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Deleted bool   `json:"deleted"`
}

// EpisodeAction records one playback event. The referencing device is kept
// as its relational id; resolution to a device document is deferred to the
// consumer.
type EpisodeAction struct {
	Action      *string    `json:"action,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Started     *int64     `json:"started,omitempty"`
	Playmark    *int64     `json:"playmark,omitempty"`
	DeviceOldID *int64     `json:"device_oldid,omitempty"`
}

// SubscriptionAction records a subscribe or unsubscribe event against a
// fully resolved device document id.
type SubscriptionAction struct {
	Action    string     `json:"action"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Device    string     `json:"device,omitempty"`
}

// Rating is a user rating of a podcast.
type Rating struct {
	Rating    int        `json:"rating"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
