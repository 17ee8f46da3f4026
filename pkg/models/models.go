// Package models defines the relational (old) side of the migration: the
// gorm-mapped records read from the PostgreSQL schema. They are inputs only;
// the migration never writes them.
package models

import "time"

// Podcast is a feed row. Nullable columns are pointers so an unset value
// survives the trip into the document store as "never set".
type Podcast struct {
	ID              int64         `gorm:"primary_key" json:"id"`
	URL             string        `gorm:"not null" json:"url"`
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Link            *string       `json:"link,omitempty"`
	LastUpdate      *time.Time    `json:"last_update,omitempty"`
	Language        *string       `json:"language,omitempty"`
	ContentTypes    *string       `json:"content_types,omitempty"`
	LogoURL         *string       `json:"logo_url,omitempty"`
	Author          *string       `json:"author,omitempty"`
	GroupID         *int64        `json:"group_id,omitempty"`
	Group           *PodcastGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	GroupMemberName *string       `json:"group_member_name,omitempty"`
}

// PodcastGroup is a named set of related feeds (e.g. the same show in
// several audio formats).
type PodcastGroup struct {
	ID    int64   `gorm:"primary_key" json:"id"`
	Title *string `json:"title,omitempty"`
}

// Episode is an episode row belonging to a podcast.
type Episode struct {
	ID          int64      `gorm:"primary_key" json:"id"`
	PodcastID   int64      `gorm:"not null;index" json:"podcast_id"`
	Podcast     *Podcast   `gorm:"foreignKey:PodcastID" json:"podcast,omitempty"`
	URL         string     `gorm:"not null" json:"url"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Link        *string    `json:"link,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Duration    *int64     `json:"duration,omitempty"`
	Filesize    *int64     `json:"filesize,omitempty"`
	Language    *string    `json:"language,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	Outdated    bool       `json:"outdated"`
	Mimetype    string     `json:"mimetype,omitempty"`
	// Timestamp is the publication time; it becomes the document's
	// released field.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// User is an account row.
type User struct {
	ID       int64  `gorm:"primary_key" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
}

// Device is a client device row owned by a user. (user, uid) is the natural
// key clients address devices by.
type Device struct {
	ID      int64  `gorm:"primary_key" json:"id"`
	UserID  int64  `gorm:"not null;index:idx_devices_user_uid,unique" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UID     string `gorm:"not null;index:idx_devices_user_uid,unique" json:"uid"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Deleted bool   `json:"deleted"`
}

// EpisodeAction is a playback event (play, download, delete, ...).
type EpisodeAction struct {
	ID        int64      `gorm:"primary_key" json:"id"`
	Action    *string    `json:"action,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Started   *int64     `json:"started,omitempty"`
	Playmark  *int64     `json:"playmark,omitempty"`
	DeviceID  *int64     `json:"device_id,omitempty"`
	Device    *Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}

// Subscription action codes as stored in the relational schema.
const (
	SubscriptionActionSubscribe = 1
)

// SubscriptionAction is a subscribe/unsubscribe event, with the action
// stored as an integer code.
type SubscriptionAction struct {
	ID        int64      `gorm:"primary_key" json:"id"`
	Action    int        `gorm:"not null" json:"action"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	DeviceID  int64      `gorm:"not null" json:"device_id"`
	Device    *Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}

// HistoricPodcastData is a daily subscriber-count sample for a podcast.
type HistoricPodcastData struct {
	ID              int64     `gorm:"primary_key" json:"id"`
	PodcastID       int64     `gorm:"not null;index" json:"podcast_id"`
	Date            time.Time `gorm:"not null" json:"date"`
	SubscriberCount int       `json:"subscriber_count"`
}

// RelatedPodcast links a podcast to another podcast considered related to it.
type RelatedPodcast struct {
	ID           int64    `gorm:"primary_key" json:"id"`
	RefPodcastID int64    `gorm:"not null;index" json:"ref_podcast_id"`
	RelPodcastID int64    `gorm:"not null" json:"rel_podcast_id"`
	RelPodcast   *Podcast `gorm:"foreignKey:RelPodcastID" json:"rel_podcast,omitempty"`
}

// BlacklistEntry marks a podcast as excluded from the directory.
type BlacklistEntry struct {
	ID        int64    `gorm:"primary_key" json:"id"`
	PodcastID int64    `gorm:"not null" json:"podcast_id"`
	Podcast   *Podcast `gorm:"foreignKey:PodcastID" json:"podcast,omitempty"`
}

// Rating is a user rating row.
type Rating struct {
	ID        int64      `gorm:"primary_key" json:"id"`
	Rating    int        `json:"rating"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
