package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/store"
	"github.com/MKhiriev/go-chat-sync/internal/utils"
	"github.com/MKhiriev/go-chat-sync/models"
)

// applyChanges walks the delta in fetcher order, applying each change under
// the conflict-detection rule. It returns the changes that were applied and
// the conflicts that were detected; conflicting changes leave local data
// untouched.
func (e *syncEngine) applyChanges(ctx context.Context, changes []models.SyncChange) ([]models.SyncChange, []models.SyncConflict, error) {
	var (
		applied   []models.SyncChange
		conflicts []models.SyncConflict
	)

	for _, change := range changes {
		conflict, err := e.applyChange(ctx, change)
		if err != nil {
			return nil, nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
			continue
		}
		applied = append(applied, change)
	}

	return applied, conflicts, nil
}

// applyChange applies one upstream change. The rule is version-first: an
// absent key or a strictly newer server version always wins; a tied or older
// server version conflicts only when the canonical JSON content differs.
func (e *syncEngine) applyChange(ctx context.Context, change models.SyncChange) (*models.SyncConflict, error) {
	key := store.EntityKey(e.cfg.Sync.Namespace, change.EntityType, change.EntityID)

	local, err := e.store.GetWithMetadata(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		if err = e.store.Set(ctx, key, change.Data, change.Version); err != nil {
			return nil, fmt.Errorf("apply %s %s: %w", change.EntityType, change.EntityID, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local %s %s: %w", change.EntityType, change.EntityID, err)
	}

	if local.Metadata.Version < change.Version {
		if err = e.store.Set(ctx, key, change.Data, change.Version); err != nil {
			return nil, fmt.Errorf("apply %s %s: %w", change.EntityType, change.EntityID, err)
		}
		return nil, nil
	}

	if utils.JSONEqual(local.Value, change.Data) {
		return nil, nil
	}

	conflict := models.SyncConflict{
		ID:            e.uuid.Generate(),
		EntityType:    change.EntityType,
		EntityID:      change.EntityID,
		LocalData:     local.Value,
		ServerData:    change.Data,
		LocalVersion:  local.Metadata.Version,
		ServerVersion: change.Version,
		DetectedAt:    time.Now().UTC(),
		ConflictType:  models.ConflictTypeConcurrentEdit,
	}

	e.logger.Debug().
		Str("func", "syncEngine.applyChange").
		Str("entity_type", string(change.EntityType)).
		Str("entity_id", change.EntityID).
		Str("local_fingerprint", utils.Fingerprint(local.Value)).
		Str("server_fingerprint", utils.Fingerprint(change.Data)).
		Msg("concurrent edit detected")

	return &conflict, nil
}

// applyDeletion removes the entity and its keep_both sibling. Deleting an
// absent entity is a no-op.
func (e *syncEngine) applyDeletion(ctx context.Context, del models.SyncDeletion) error {
	ns := e.cfg.Sync.Namespace

	if err := e.store.Delete(ctx, store.EntityKey(ns, del.EntityType, del.EntityID)); err != nil {
		return fmt.Errorf("delete %s %s: %w", del.EntityType, del.EntityID, err)
	}
	if err := e.store.Delete(ctx, store.LocalCopyKey(ns, del.EntityType, del.EntityID)); err != nil {
		return fmt.Errorf("delete %s %s local copy: %w", del.EntityType, del.EntityID, err)
	}
	return nil
}

// recordConflicts appends the new conflicts to the subject's pending list,
// emitting a detection event per conflict, and returns the total pending
// count.
func (e *syncEngine) recordConflicts(ctx context.Context, subject string, conflicts []models.SyncConflict) (int, error) {
	pending, err := e.readConflicts(ctx, subject)
	if err != nil {
		return 0, err
	}

	if len(conflicts) == 0 {
		return len(pending), nil
	}

	pending = append(pending, conflicts...)
	if err = e.writeConflicts(ctx, subject, pending); err != nil {
		return 0, err
	}

	for _, conflict := range conflicts {
		e.events.emitDetected(conflict)
	}

	return len(pending), nil
}

// GetConflicts implements [SyncEngine].
func (e *syncEngine) GetConflicts(ctx context.Context, subject string) ([]models.SyncConflict, error) {
	return e.readConflicts(ctx, subject)
}

// ResolveConflict implements [SyncEngine].
func (e *syncEngine) ResolveConflict(ctx context.Context, subject string, conflict models.SyncConflict, resolution models.ConflictResolution) error {
	ctx = subjectCtx(ctx, subject)
	log := logger.FromContext(ctx)

	if err := e.applyResolution(ctx, subject, conflict, resolution); err != nil {
		var resErr *ConflictResolutionError
		if errors.As(err, &resErr) {
			return err
		}
		return &ConflictResolutionError{ConflictID: conflict.ID, Err: err}
	}

	if err := e.settleConflict(ctx, subject, conflict.ID); err != nil {
		return &ConflictResolutionError{ConflictID: conflict.ID, Err: err}
	}

	log.Info().
		Str("func", "syncEngine.ResolveConflict").
		Str("subject", subject).
		Str("conflict_id", conflict.ID).
		Str("entity_type", string(conflict.EntityType)).
		Str("entity_id", conflict.EntityID).
		Str("strategy", string(resolution.Strategy)).
		Msg("conflict resolved")

	e.events.emitResolved(conflict, resolution)
	return nil
}

// applyResolution performs the storage and upload effects of one resolution
// strategy, without touching the pending list.
func (e *syncEngine) applyResolution(ctx context.Context, subject string, conflict models.SyncConflict, resolution models.ConflictResolution) error {
	ns := e.cfg.Sync.Namespace
	key := store.EntityKey(ns, conflict.EntityType, conflict.EntityID)

	switch resolution.Strategy {
	case models.StrategyKeepLocal:
		return e.uploadResolved(ctx, subject, conflict, conflict.LocalData, conflict.LocalVersion+1)

	case models.StrategyKeepServer, models.StrategyDiscard:
		return e.store.Set(ctx, key, conflict.ServerData, conflict.ServerVersion)

	case models.StrategyManualMerge:
		if len(resolution.MergedData) == 0 {
			return &ConflictResolutionError{
				ConflictID: conflict.ID,
				Err:        fmt.Errorf("manual_merge requires merged data"),
			}
		}
		version := max(conflict.LocalVersion, conflict.ServerVersion) + 1
		return e.uploadResolved(ctx, subject, conflict, resolution.MergedData, version)

	case models.StrategyKeepBoth:
		if err := e.store.Set(ctx, key, conflict.ServerData, conflict.ServerVersion); err != nil {
			return err
		}
		copyKey := store.LocalCopyKey(ns, conflict.EntityType, conflict.EntityID)
		return e.store.Set(ctx, copyKey, conflict.LocalData, conflict.LocalVersion)

	default:
		return &ConflictResolutionError{
			ConflictID: conflict.ID,
			Err:        fmt.Errorf("unknown resolution strategy %q", resolution.Strategy),
		}
	}
}

// uploadResolved pushes the winning payload to the server and, on success,
// writes it locally at the version the server acknowledged.
func (e *syncEngine) uploadResolved(ctx context.Context, subject string, conflict models.SyncConflict, data json.RawMessage, version int64) error {
	change := models.SyncChange{
		EntityType: conflict.EntityType,
		EntityID:   conflict.EntityID,
		ChangeType: models.ChangeTypeUpdate,
		Data:       data,
		Version:    version,
	}

	fctx, cancel := e.fetchCtx(ctx)
	result, err := e.fetcher.UploadChanges(fctx, subject, []models.SyncChange{change})
	cancel()
	if err != nil {
		return fmt.Errorf("upload resolved %s %s: %w", conflict.EntityType, conflict.EntityID, err)
	}
	for _, failure := range result.Failures {
		if failure.EntityID == conflict.EntityID {
			return fmt.Errorf("server rejected resolved %s %s: %s", conflict.EntityType, conflict.EntityID, failure.Reason)
		}
	}
	if result.NewVersion > 0 {
		version = result.NewVersion
	}

	key := store.EntityKey(e.cfg.Sync.Namespace, conflict.EntityType, conflict.EntityID)
	return e.store.Set(ctx, key, data, version)
}

// settleConflict removes the conflict from the pending list and rolls the
// state's conflict count, returning status to idle when the list drains.
func (e *syncEngine) settleConflict(ctx context.Context, subject, conflictID string) error {
	pending, err := e.readConflicts(ctx, subject)
	if err != nil {
		return err
	}

	remaining := pending[:0]
	for _, c := range pending {
		if c.ID != conflictID {
			remaining = append(remaining, c)
		}
	}
	if err = e.writeConflicts(ctx, subject, remaining); err != nil {
		return err
	}

	patch := models.SyncStatePatch{ConflictCount: ptr(len(remaining))}
	if len(remaining) == 0 {
		st, stErr := e.tracker.GetState(ctx, subject)
		if stErr != nil {
			return stErr
		}
		if st.Status == models.SyncStatusResolvingConflicts {
			patch.Status = ptr(models.SyncStatusIdle)
		}
	}
	_, err = e.tracker.UpdateState(ctx, subject, patch)
	return err
}

// AutoResolveConflicts implements [SyncEngine].
func (e *syncEngine) AutoResolveConflicts(ctx context.Context, subject string) (int, error) {
	return e.autoResolve(subjectCtx(ctx, subject), subject)
}

// autoResolve settles every eligible pending conflict with the configured
// default strategy. Message conflicts are never auto-resolved; a human has to
// look at those. Per-conflict failures are logged and skipped.
func (e *syncEngine) autoResolve(ctx context.Context, subject string) (int, error) {
	log := logger.FromContext(ctx)

	pending, err := e.readConflicts(ctx, subject)
	if err != nil {
		return 0, err
	}

	strategy := models.ResolutionStrategy(e.cfg.Sync.AutoResolveStrategy)
	resolved := 0
	for _, conflict := range pending {
		if !autoResolvable(conflict) {
			continue
		}

		resolution := models.ConflictResolution{ConflictID: conflict.ID, Strategy: strategy}
		if err = e.ResolveConflict(ctx, subject, conflict, resolution); err != nil {
			log.Err(err).
				Str("func", "syncEngine.autoResolve").
				Str("subject", subject).
				Str("conflict_id", conflict.ID).
				Msg("skipping conflict that failed auto-resolution")
			continue
		}
		resolved++
	}

	return resolved, nil
}

func autoResolvable(conflict models.SyncConflict) bool {
	return conflict.ConflictType == models.ConflictTypeConcurrentEdit &&
		conflict.EntityType != models.EntityTypeMessage
}

func (e *syncEngine) readConflicts(ctx context.Context, subject string) ([]models.SyncConflict, error) {
	raw, err := e.store.Get(ctx, store.ConflictsKey(e.cfg.Sync.Namespace, subject))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conflicts for %s: %w", subject, err)
	}

	var conflicts []models.SyncConflict
	if err = json.Unmarshal(raw, &conflicts); err != nil {
		return nil, fmt.Errorf("decode conflicts for %s: %w", subject, err)
	}
	return conflicts, nil
}

func (e *syncEngine) writeConflicts(ctx context.Context, subject string, conflicts []models.SyncConflict) error {
	key := store.ConflictsKey(e.cfg.Sync.Namespace, subject)

	if len(conflicts) == 0 {
		if err := e.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear conflicts for %s: %w", subject, err)
		}
		return nil
	}

	raw, err := json.Marshal(conflicts)
	if err != nil {
		return fmt.Errorf("encode conflicts for %s: %w", subject, err)
	}
	if err = e.store.Set(ctx, key, raw, 0); err != nil {
		return fmt.Errorf("write conflicts for %s: %w", subject, err)
	}
	return nil
}
