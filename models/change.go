package models

import (
	"encoding/json"
	"time"
)

// EntityType identifies the kind of synchronized entity. The engine treats
// entity payloads as opaque blobs; the type only participates in key
// namespacing and auto-resolution eligibility.
type EntityType string

const (
	EntityTypeWorkspace   EntityType = "workspace"
	EntityTypeChannel     EntityType = "channel"
	EntityTypeUser        EntityType = "user"
	EntityTypeMessage     EntityType = "message"
	EntityTypePreferences EntityType = "preferences"
)

// ChangeType describes the kind of upstream mutation carried by a SyncChange.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
)

// SyncChange is a single upstream mutation produced by the data fetcher and
// consumed by the incremental sync protocol. Version increases monotonically
// per entity on the server side.
type SyncChange struct {
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ChangeType ChangeType      `json:"change_type"`
	Data       json.RawMessage `json:"data"`
	Version    int64           `json:"version"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
}

// SyncDeletion removes one entity; applying it to an absent key is a no-op.
type SyncDeletion struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
}

// Entity is a versioned opaque payload as delivered by a bulk snapshot.
type Entity struct {
	ID      string          `json:"id"`
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// InitialSyncData is the transfer envelope of a one-time bulk import.
type InitialSyncData struct {
	Workspaces  []Entity        `json:"workspaces"`
	Channels    []Entity        `json:"channels"`
	Users       []Entity        `json:"users"`
	Messages    []Entity        `json:"messages"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	SyncToken   string          `json:"sync_token"`
}

// IncrementalSyncData is the transfer envelope of one delta page. Callers
// must re-invoke the incremental protocol with NextSyncToken while HasMore
// is true to drain the full delta.
type IncrementalSyncData struct {
	Changes       []SyncChange   `json:"changes"`
	Deletions     []SyncDeletion `json:"deletions"`
	NextSyncToken string         `json:"next_sync_token"`
	HasMore       bool           `json:"has_more"`
}

// UploadFailure reports one entity the server refused during an upload.
type UploadFailure struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// UploadResult is the server's acknowledgement of an uploadChanges call.
type UploadResult struct {
	SuccessIDs []string        `json:"success_ids"`
	Failures   []UploadFailure `json:"failures,omitempty"`
	NewVersion int64           `json:"new_version"`
}
