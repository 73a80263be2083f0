// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-chat-sync/internal/adapter"
	"github.com/MKhiriev/go-chat-sync/internal/config"
	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/store"
	"github.com/MKhiriev/go-chat-sync/internal/utils"
	"github.com/MKhiriev/go-chat-sync/models"
)

type syncEngine struct {
	store   store.KeyValueStorage
	fetcher adapter.DataFetcher
	cfg     config.EngineConfig

	tracker *stateTracker
	events  *eventBus
	uuid    *utils.UUIDGenerator
	logger  *logger.Logger

	// in-progress guard; one sync operation per subject, process-wide
	guardMu  sync.Mutex
	inFlight map[string]struct{}
}

// NewSyncEngine constructs the engine with explicit dependencies. The
// returned value is safe for concurrent use.
func NewSyncEngine(kv store.KeyValueStorage, fetcher adapter.DataFetcher, cfg config.EngineConfig, log *logger.Logger) SyncEngine {
	return &syncEngine{
		store:    kv,
		fetcher:  fetcher,
		cfg:      cfg,
		tracker:  newStateTracker(kv, cfg.Sync.Namespace, log),
		events:   newEventBus(log),
		uuid:     utils.NewUUIDGenerator(),
		logger:   log,
		inFlight: make(map[string]struct{}),
	}
}

// acquireGuard reserves the subject's sync slot. Callers must release via
// releaseGuard in a defer.
func (e *syncEngine) acquireGuard(subject string) error {
	e.guardMu.Lock()
	defer e.guardMu.Unlock()

	if _, busy := e.inFlight[subject]; busy {
		return &SyncInProgressError{Subject: subject}
	}
	e.inFlight[subject] = struct{}{}
	return nil
}

func (e *syncEngine) releaseGuard(subject string) {
	e.guardMu.Lock()
	defer e.guardMu.Unlock()
	delete(e.inFlight, subject)
}

// fetchCtx bounds one fetcher round trip by the configured request timeout.
func (e *syncEngine) fetchCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Adapter.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.Adapter.RequestTimeout)
}

// subjectCtx tags ctx with the sync subject so store-layer logging can
// attribute failed operations to the subject being synchronized.
func subjectCtx(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, utils.SubjectCtxKey, subject)
}

// PerformInitialSync implements [SyncEngine].
func (e *syncEngine) PerformInitialSync(ctx context.Context, subject string) (models.InitialSyncData, error) {
	ctx = subjectCtx(ctx, subject)
	log := logger.FromContext(ctx)

	if err := e.acquireGuard(subject); err != nil {
		return models.InitialSyncData{}, err
	}
	defer e.releaseGuard(subject)

	if _, err := e.tracker.UpdateState(ctx, subject, statusPatch(models.SyncStatusInitialSync)); err != nil {
		return models.InitialSyncData{}, &SyncFailedError{Phase: "initial", Err: err}
	}

	fctx, cancel := e.fetchCtx(ctx)
	data, err := e.fetcher.FetchInitialSyncData(fctx, subject, adapter.FetchOptions{
		MessageDays:        e.cfg.Sync.MessageHistoryDays,
		IncludePreferences: e.cfg.Sync.IncludePreferences,
	})
	cancel()
	if err != nil {
		e.setErrorState(ctx, subject, err)
		return models.InitialSyncData{}, &SyncFailedError{Phase: "initial", Err: err}
	}

	counts, err := e.persistSnapshot(ctx, subject, data)
	if err != nil {
		e.setErrorState(ctx, subject, err)
		return models.InitialSyncData{}, &SyncFailedError{Phase: "initial", Err: err}
	}

	now := time.Now().UTC()
	patch := models.SyncStatePatch{
		Status:                  ptr(models.SyncStatusIdle),
		SyncToken:               ptr(data.SyncToken),
		HasCompletedInitialSync: ptr(true),
		LastFullSyncAt:          &now,
		Error:                   ptr(""),
		StaleEntities:           &[]string{},
	}
	if _, err = e.tracker.UpdateState(ctx, subject, patch); err != nil {
		return models.InitialSyncData{}, &SyncFailedError{Phase: "initial", Err: err}
	}

	log.Info().
		Str("func", "syncEngine.PerformInitialSync").
		Str("subject", subject).
		Int("workspaces", counts[models.EntityTypeWorkspace]).
		Int("channels", counts[models.EntityTypeChannel]).
		Int("users", counts[models.EntityTypeUser]).
		Int("messages", counts[models.EntityTypeMessage]).
		Msg("initial sync completed")

	e.events.emitCompleted(SyncCompletedEvent{
		Subject:  subject,
		Kind:     SyncKindInitial,
		Counts:   counts,
		Complete: true,
	})

	return data, nil
}

// persistSnapshot stores every entity of the bulk snapshot at its server
// version, stores preferences when present, and rebuilds the derived indices.
func (e *syncEngine) persistSnapshot(ctx context.Context, subject string, data models.InitialSyncData) (map[models.EntityType]int, error) {
	ns := e.cfg.Sync.Namespace

	collections := []struct {
		entityType models.EntityType
		entities   []models.Entity
	}{
		{models.EntityTypeWorkspace, data.Workspaces},
		{models.EntityTypeChannel, data.Channels},
		{models.EntityTypeUser, data.Users},
		{models.EntityTypeMessage, data.Messages},
	}

	counts := make(map[models.EntityType]int, len(collections))
	for _, c := range collections {
		for _, entity := range c.entities {
			key := store.EntityKey(ns, c.entityType, entity.ID)
			if err := e.store.Set(ctx, key, entity.Data, entity.Version); err != nil {
				return nil, fmt.Errorf("persist %s %s: %w", c.entityType, entity.ID, err)
			}
		}
		counts[c.entityType] = len(c.entities)
	}

	if len(data.Preferences) > 0 {
		if err := e.store.Set(ctx, store.PreferencesKey(ns, subject), data.Preferences, 0); err != nil {
			return nil, fmt.Errorf("persist preferences: %w", err)
		}
	}

	if err := e.rebuildIndices(ctx, subject, data); err != nil {
		return nil, err
	}

	return counts, nil
}

// rebuildIndices derives the id lists used by later queries and by reset:
// subject->workspaces, subject->channels, subject->users, and
// channel->messages grouped by the channel_id field of each message payload.
func (e *syncEngine) rebuildIndices(ctx context.Context, subject string, data models.InitialSyncData) error {
	ns := e.cfg.Sync.Namespace

	if err := e.tracker.writeIndex(ctx, store.SubjectIndexKey(ns, subject, collectionWorkspaces), entityIDs(data.Workspaces)); err != nil {
		return err
	}
	if err := e.tracker.writeIndex(ctx, store.SubjectIndexKey(ns, subject, collectionChannels), entityIDs(data.Channels)); err != nil {
		return err
	}
	if err := e.tracker.writeIndex(ctx, store.SubjectIndexKey(ns, subject, collectionUsers), entityIDs(data.Users)); err != nil {
		return err
	}

	byChannel := make(map[string][]string)
	for _, msg := range data.Messages {
		channelID := channelIDOf(msg.Data)
		if channelID == "" {
			continue
		}
		byChannel[channelID] = append(byChannel[channelID], msg.ID)
	}
	for channelID, messageIDs := range byChannel {
		if err := e.tracker.writeIndex(ctx, store.ChannelMessagesIndexKey(ns, channelID), messageIDs); err != nil {
			return err
		}
	}

	return nil
}

// SyncSince implements [SyncEngine].
func (e *syncEngine) SyncSince(ctx context.Context, subject string, syncToken string) (models.IncrementalSyncData, error) {
	ctx = subjectCtx(ctx, subject)
	log := logger.FromContext(ctx)

	if err := e.acquireGuard(subject); err != nil {
		return models.IncrementalSyncData{}, err
	}
	defer e.releaseGuard(subject)

	if _, err := e.tracker.UpdateState(ctx, subject, statusPatch(models.SyncStatusIncrementalSync)); err != nil {
		return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
	}

	fctx, cancel := e.fetchCtx(ctx)
	delta, err := e.fetcher.FetchIncrementalSyncData(fctx, subject, syncToken)
	cancel()
	if err != nil {
		if isInvalidTokenError(err) {
			e.invalidateToken(ctx, subject, err)
			return models.IncrementalSyncData{}, &InvalidSyncTokenError{Token: syncToken}
		}
		e.setErrorState(ctx, subject, err)
		return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
	}

	applied, newConflicts, err := e.applyChanges(ctx, delta.Changes)
	if err != nil {
		e.setErrorState(ctx, subject, err)
		return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
	}

	for _, del := range delta.Deletions {
		if err = e.applyDeletion(ctx, del); err != nil {
			e.setErrorState(ctx, subject, err)
			return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
		}
	}

	pendingCount, err := e.recordConflicts(ctx, subject, newConflicts)
	if err != nil {
		e.setErrorState(ctx, subject, err)
		return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
	}

	status := models.SyncStatusIdle
	if pendingCount > 0 {
		status = models.SyncStatusResolvingConflicts
	}
	now := time.Now().UTC()
	patch := models.SyncStatePatch{
		Status:                &status,
		SyncToken:             ptr(delta.NextSyncToken),
		LastIncrementalSyncAt: &now,
		ConflictCount:         ptr(pendingCount),
		Error:                 ptr(""),
	}
	if _, err = e.tracker.UpdateState(ctx, subject, patch); err != nil {
		return models.IncrementalSyncData{}, &SyncFailedError{Phase: "incremental", Err: err}
	}

	log.Info().
		Str("func", "syncEngine.SyncSince").
		Str("subject", subject).
		Int("changes", len(delta.Changes)).
		Int("deletions", len(delta.Deletions)).
		Int("conflicts", len(newConflicts)).
		Bool("has_more", delta.HasMore).
		Msg("incremental sync completed")

	e.events.emitCompleted(SyncCompletedEvent{
		Subject:   subject,
		Kind:      SyncKindIncremental,
		Counts:    countByType(applied),
		Deleted:   len(delta.Deletions),
		Conflicts: len(newConflicts),
		Complete:  !delta.HasMore,
	})

	if e.cfg.Sync.AutoResolve && len(newConflicts) > 0 {
		if _, err = e.autoResolve(ctx, subject); err != nil {
			log.Err(err).
				Str("func", "syncEngine.SyncSince").
				Str("subject", subject).
				Msg("auto-resolution after incremental sync failed")
		}
	}

	return delta, nil
}

// GetSyncState implements [SyncEngine].
func (e *syncEngine) GetSyncState(ctx context.Context, subject string) (models.SyncState, error) {
	return e.tracker.GetState(ctx, subject)
}

// ResetSyncState implements [SyncEngine]. Reset takes the subject's guard so
// it cannot race a running sync.
func (e *syncEngine) ResetSyncState(ctx context.Context, subject string) error {
	ctx = subjectCtx(ctx, subject)

	if err := e.acquireGuard(subject); err != nil {
		return err
	}
	defer e.releaseGuard(subject)

	return e.tracker.ResetState(ctx, subject)
}

// OnSyncCompleted implements [SyncEngine].
func (e *syncEngine) OnSyncCompleted(handler SyncCompletedHandler) func() {
	return e.events.subscribeCompleted(handler)
}

// OnConflictDetected implements [SyncEngine].
func (e *syncEngine) OnConflictDetected(handler ConflictDetectedHandler) func() {
	return e.events.subscribeDetected(handler)
}

// OnConflictResolved implements [SyncEngine].
func (e *syncEngine) OnConflictResolved(handler ConflictResolvedHandler) func() {
	return e.events.subscribeResolved(handler)
}

// invalidateToken records a dead sync cursor: the token is cleared, every
// cached collection is marked stale, and the subject is forced back through a
// full initial sync.
func (e *syncEngine) invalidateToken(ctx context.Context, subject string, cause error) {
	stale := []string{
		string(models.EntityTypeWorkspace),
		string(models.EntityTypeChannel),
		string(models.EntityTypeUser),
		string(models.EntityTypeMessage),
		string(models.EntityTypePreferences),
	}
	patch := models.SyncStatePatch{
		Status:                  ptr(models.SyncStatusError),
		SyncToken:               ptr(""),
		HasCompletedInitialSync: ptr(false),
		Error:                   ptr(cause.Error()),
		StaleEntities:           &stale,
	}
	if _, err := e.tracker.UpdateState(ctx, subject, patch); err != nil {
		e.logger.Err(err).
			Str("func", "syncEngine.invalidateToken").
			Str("subject", subject).
			Msg("failed to record invalidated sync token")
	}
}

func (e *syncEngine) setErrorState(ctx context.Context, subject string, cause error) {
	patch := models.SyncStatePatch{
		Status: ptr(models.SyncStatusError),
		Error:  ptr(cause.Error()),
	}
	if _, err := e.tracker.UpdateState(ctx, subject, patch); err != nil {
		e.logger.Err(err).
			Str("func", "syncEngine.setErrorState").
			Str("subject", subject).
			Msg("failed to record sync error state")
	}
}

// isInvalidTokenError recognises a dead sync cursor either by the adapter's
// sentinel or by token wording in the message of a fetcher error.
func isInvalidTokenError(err error) bool {
	if errors.Is(err, adapter.ErrInvalidSyncToken) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid token") ||
		strings.Contains(msg, "invalid sync token") ||
		strings.Contains(msg, "expired")
}

func statusPatch(status models.SyncStatus) models.SyncStatePatch {
	return models.SyncStatePatch{Status: &status}
}

func ptr[T any](v T) *T { return &v }

func entityIDs(entities []models.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, entity := range entities {
		ids = append(ids, entity.ID)
	}
	return ids
}

func countByType(changes []models.SyncChange) map[models.EntityType]int {
	counts := make(map[models.EntityType]int)
	for _, c := range changes {
		counts[c.EntityType]++
	}
	return counts
}

// channelIDOf extracts the channel_id field from an otherwise opaque message
// payload. Messages without one are left out of the channel index.
func channelIDOf(data json.RawMessage) string {
	var probe struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.ChannelID
}
