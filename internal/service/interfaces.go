// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the offline synchronization engine: the initial
// and incremental sync protocols, conflict detection and resolution, the
// per-subject state machine, and the completion/conflict event surface.
//
// The engine is constructed once with explicit dependencies via
// [NewSyncEngine] and is safe for concurrent use. Per subject, at most one
// sync operation runs at a time; a second caller receives
// [SyncInProgressError] rather than queueing.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-sync/models"
)

// SyncKind labels which protocol produced a completion event.
type SyncKind string

const (
	SyncKindInitial     SyncKind = "initial"
	SyncKindIncremental SyncKind = "incremental"
)

// SyncCompletedEvent is emitted after a successful protocol run.
type SyncCompletedEvent struct {
	Subject string
	Kind    SyncKind
	// Counts holds per-entity-type totals: entities imported for an initial
	// sync, changes applied for an incremental one.
	Counts map[models.EntityType]int
	// Deleted is the number of deletions applied (incremental only).
	Deleted int
	// Conflicts is the number of new conflicts recorded by this run.
	Conflicts int
	// Complete is false when the server reported more delta pages pending.
	Complete bool
}

// SyncCompletedHandler receives completion events. Handlers run synchronously
// on the syncing goroutine and must not block.
type SyncCompletedHandler func(event SyncCompletedEvent)

// ConflictDetectedHandler receives each conflict as it is recorded.
type ConflictDetectedHandler func(conflict models.SyncConflict)

// ConflictResolvedHandler receives each conflict as it is settled, together
// with the resolution that settled it.
type ConflictResolvedHandler func(conflict models.SyncConflict, resolution models.ConflictResolution)

// SyncEngine is the public surface of the synchronization engine. All methods
// are safe for concurrent use.
type SyncEngine interface {
	// PerformInitialSync runs the one-time bulk import for subject: fetches
	// the complete snapshot, persists every entity at its server version,
	// stores preferences, and rebuilds the secondary indices. Returns
	// [SyncInProgressError] if another operation holds the subject's guard,
	// or [SyncFailedError] if any step fails.
	PerformInitialSync(ctx context.Context, subject string) (models.InitialSyncData, error)

	// SyncSince applies one incremental delta page recorded after syncToken.
	// Changes are applied under the conflict-detection rule; deletions are
	// applied unconditionally. Returns [SyncInProgressError] when guarded,
	// [InvalidSyncTokenError] when the server rejects the token, or
	// [SyncFailedError] on other failures.
	SyncSince(ctx context.Context, subject string, syncToken string) (models.IncrementalSyncData, error)

	// ResolveConflict settles one pending conflict using the given
	// resolution. Returns [ConflictResolutionError] if the strategy is
	// unknown, required merge data is missing, or an underlying store or
	// upload operation fails; the conflict then stays pending.
	ResolveConflict(ctx context.Context, subject string, conflict models.SyncConflict, resolution models.ConflictResolution) error

	// AutoResolveConflicts resolves every pending conflict that is eligible
	// for automatic resolution using the configured default strategy, and
	// returns the number resolved. Per-conflict failures are logged and
	// skipped.
	AutoResolveConflicts(ctx context.Context, subject string) (int, error)

	// GetConflicts returns the subject's pending conflicts, oldest first.
	GetConflicts(ctx context.Context, subject string) ([]models.SyncConflict, error)

	// GetSyncState returns the subject's sync state, or a fresh default if
	// the subject has never synchronized.
	GetSyncState(ctx context.Context, subject string) (models.SyncState, error)

	// ResetSyncState restores the default state and purges the subject's
	// cached entities, indices, preferences, and pending conflicts.
	ResetSyncState(ctx context.Context, subject string) error

	// OnSyncCompleted registers handler for completion events and returns an
	// unsubscribe func.
	OnSyncCompleted(handler SyncCompletedHandler) func()

	// OnConflictDetected registers handler for newly recorded conflicts and
	// returns an unsubscribe func.
	OnConflictDetected(handler ConflictDetectedHandler) func()

	// OnConflictResolved registers handler for settled conflicts and returns
	// an unsubscribe func.
	OnConflictResolved(handler ConflictResolvedHandler) func()
}

// SyncJob is a background worker that keeps one subject's cache current by
// periodically draining incremental delta pages.
type SyncJob interface {
	// Start launches the background goroutine syncing subject every
	// interval, defaulting to 5 minutes if interval is zero or negative.
	// Any previously running job is stopped first.
	Start(ctx context.Context, subject string, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated. Safe to call when the job is not running.
	Stop()
}
