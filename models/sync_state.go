package models

import "time"

// SyncStatus describes where a subject's synchronization timeline currently is.
type SyncStatus string

const (
	SyncStatusIdle               SyncStatus = "idle"
	SyncStatusInitialSync        SyncStatus = "initial_sync"
	SyncStatusIncrementalSync    SyncStatus = "incremental_sync"
	SyncStatusResolvingConflicts SyncStatus = "resolving_conflicts"
	SyncStatusError              SyncStatus = "error"
)

// SyncState is the per-subject synchronization progress record. It is created
// lazily with default values on first access and mutated only by the engine.
type SyncState struct {
	Status                  SyncStatus `json:"status"`
	SyncToken               string     `json:"sync_token,omitempty"`
	HasCompletedInitialSync bool       `json:"has_completed_initial_sync"`
	LastFullSyncAt          *time.Time `json:"last_full_sync_at,omitempty"`
	LastIncrementalSyncAt   *time.Time `json:"last_incremental_sync_at,omitempty"`
	ConflictCount           int        `json:"conflict_count"`
	Error                   string     `json:"error,omitempty"`
	StaleEntities           []string   `json:"stale_entities,omitempty"`
}

// DefaultSyncState returns the state assigned to a subject that has never
// synchronized.
func DefaultSyncState() SyncState {
	return SyncState{Status: SyncStatusIdle}
}

// SyncStatePatch is a partial SyncState used for last-writer-wins merges.
// Nil fields are left untouched by the merge.
type SyncStatePatch struct {
	Status                  *SyncStatus
	SyncToken               *string
	HasCompletedInitialSync *bool
	LastFullSyncAt          *time.Time
	LastIncrementalSyncAt   *time.Time
	ConflictCount           *int
	Error                   *string
	StaleEntities           *[]string
}

// Apply merges the patch into st, field by field.
func (p SyncStatePatch) Apply(st *SyncState) {
	if p.Status != nil {
		st.Status = *p.Status
	}
	if p.SyncToken != nil {
		st.SyncToken = *p.SyncToken
	}
	if p.HasCompletedInitialSync != nil {
		st.HasCompletedInitialSync = *p.HasCompletedInitialSync
	}
	if p.LastFullSyncAt != nil {
		st.LastFullSyncAt = p.LastFullSyncAt
	}
	if p.LastIncrementalSyncAt != nil {
		st.LastIncrementalSyncAt = p.LastIncrementalSyncAt
	}
	if p.ConflictCount != nil {
		st.ConflictCount = *p.ConflictCount
	}
	if p.Error != nil {
		st.Error = *p.Error
	}
	if p.StaleEntities != nil {
		st.StaleEntities = *p.StaleEntities
	}
}
