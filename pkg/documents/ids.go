package documents

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// PodcastID is a typed ID for podcast documents
type PodcastID struct {
	uuid uuid.UUID
}

func NewPodcastID() PodcastID {
	return PodcastID{uuid: uuid.New()}
}

func ParsePodcastID(s string) (PodcastID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PodcastID{}, fmt.Errorf("invalid podcast ID: %w", err)
	}
	return PodcastID{uuid: id}, nil
}

func (p PodcastID) String() string { return p.uuid.String() }
func (p PodcastID) IsZero() bool   { return p.uuid == uuid.Nil }

func (p PodcastID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "podcasts",
		ID:    p.uuid.String(),
	}
}

func (p PodcastID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *PodcastID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &p.uuid)
}

func (p PodcastID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"podcasts", p.uuid.String()},
	})
}

func (p *PodcastID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "podcasts", &p.uuid)
}

// PodcastGroupID is a typed ID for podcast group documents
type PodcastGroupID struct {
	uuid uuid.UUID
}

func NewPodcastGroupID() PodcastGroupID {
	return PodcastGroupID{uuid: uuid.New()}
}

func ParsePodcastGroupID(s string) (PodcastGroupID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PodcastGroupID{}, fmt.Errorf("invalid podcast group ID: %w", err)
	}
	return PodcastGroupID{uuid: id}, nil
}

func (g PodcastGroupID) String() string { return g.uuid.String() }
func (g PodcastGroupID) IsZero() bool   { return g.uuid == uuid.Nil }

func (g PodcastGroupID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "podcast_groups",
		ID:    g.uuid.String(),
	}
}

func (g PodcastGroupID) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.uuid.String())
}

func (g *PodcastGroupID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &g.uuid)
}

func (g PodcastGroupID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"podcast_groups", g.uuid.String()},
	})
}

func (g *PodcastGroupID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "podcast_groups", &g.uuid)
}

// EpisodeID is a typed ID for episode documents
type EpisodeID struct {
	uuid uuid.UUID
}

func NewEpisodeID() EpisodeID {
	return EpisodeID{uuid: uuid.New()}
}

func ParseEpisodeID(s string) (EpisodeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EpisodeID{}, fmt.Errorf("invalid episode ID: %w", err)
	}
	return EpisodeID{uuid: id}, nil
}

func (e EpisodeID) String() string { return e.uuid.String() }
func (e EpisodeID) IsZero() bool   { return e.uuid == uuid.Nil }

func (e EpisodeID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "episodes",
		ID:    e.uuid.String(),
	}
}

func (e EpisodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.uuid.String())
}

func (e *EpisodeID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &e.uuid)
}

func (e EpisodeID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"episodes", e.uuid.String()},
	})
}

func (e *EpisodeID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "episodes", &e.uuid)
}

// UserID is a typed ID for user documents
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) String() string { return u.uuid.String() }
func (u UserID) IsZero() bool   { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "users",
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &u.uuid)
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"users", u.uuid.String()},
	})
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

// Helper functions

func unmarshalJSONID(data []byte, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
