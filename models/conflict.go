package models

import (
	"encoding/json"
	"time"
)

// ConflictType classifies a detected divergence. Concurrent edit is the only
// type produced today; the field exists so stored conflicts stay readable if
// more types are added.
type ConflictType string

const ConflictTypeConcurrentEdit ConflictType = "concurrent_edit"

// SyncConflict records a divergence between local and server state for one
// entity. It is created by the incremental sync protocol and lives in the
// subject's pending list until resolved.
type SyncConflict struct {
	ID            string          `json:"id"`
	EntityType    EntityType      `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	LocalData     json.RawMessage `json:"local_data"`
	ServerData    json.RawMessage `json:"server_data"`
	LocalVersion  int64           `json:"local_version"`
	ServerVersion int64           `json:"server_version"`
	DetectedAt    time.Time       `json:"detected_at"`
	ConflictType  ConflictType    `json:"conflict_type"`
}

// ResolutionStrategy selects the policy applied when settling a conflict.
type ResolutionStrategy string

const (
	StrategyKeepLocal   ResolutionStrategy = "keep_local"
	StrategyKeepServer  ResolutionStrategy = "keep_server"
	StrategyManualMerge ResolutionStrategy = "manual_merge"
	StrategyKeepBoth    ResolutionStrategy = "keep_both"
	StrategyDiscard     ResolutionStrategy = "discard"
)

// ConflictResolution is the caller's decision for one pending conflict.
// MergedData is required if and only if Strategy is StrategyManualMerge.
type ConflictResolution struct {
	ConflictID string             `json:"conflict_id"`
	Strategy   ResolutionStrategy `json:"strategy"`
	MergedData json.RawMessage    `json:"merged_data,omitempty"`
}
