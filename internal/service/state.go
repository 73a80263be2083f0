package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/store"
	"github.com/MKhiriev/go-chat-sync/models"
)

// indexCollection names for the subject-scoped id lists maintained by the
// initial sync. The users list exists so that reset can purge user entities
// without a namespace-wide scan.
const (
	collectionWorkspaces = "workspaces"
	collectionChannels   = "channels"
	collectionUsers      = "users"
)

// stateTracker owns the per-subject sync state record and the derived index
// keys. It never fails on an absent state: a subject that has never
// synchronized reads as the default state.
type stateTracker struct {
	store     store.KeyValueStorage
	namespace string
	logger    *logger.Logger
}

func newStateTracker(kv store.KeyValueStorage, namespace string, log *logger.Logger) *stateTracker {
	return &stateTracker{store: kv, namespace: namespace, logger: log}
}

// GetState returns the subject's stored state, or [models.DefaultSyncState]
// when the subject has never synchronized.
func (t *stateTracker) GetState(ctx context.Context, subject string) (models.SyncState, error) {
	raw, err := t.store.Get(ctx, store.StateKey(t.namespace, subject))
	if errors.Is(err, store.ErrKeyNotFound) {
		return models.DefaultSyncState(), nil
	}
	if err != nil {
		return models.SyncState{}, fmt.Errorf("read sync state for %s: %w", subject, err)
	}

	var st models.SyncState
	if err = json.Unmarshal(raw, &st); err != nil {
		return models.SyncState{}, fmt.Errorf("decode sync state for %s: %w", subject, err)
	}

	return st, nil
}

// UpdateState merges patch into the stored state (last writer wins) and
// returns the merged record.
func (t *stateTracker) UpdateState(ctx context.Context, subject string, patch models.SyncStatePatch) (models.SyncState, error) {
	st, err := t.GetState(ctx, subject)
	if err != nil {
		return models.SyncState{}, err
	}

	patch.Apply(&st)

	if err = t.writeState(ctx, subject, st); err != nil {
		return models.SyncState{}, err
	}
	return st, nil
}

func (t *stateTracker) writeState(ctx context.Context, subject string, st models.SyncState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode sync state for %s: %w", subject, err)
	}
	if err = t.store.Set(ctx, store.StateKey(t.namespace, subject), raw, 0); err != nil {
		return fmt.Errorf("write sync state for %s: %w", subject, err)
	}
	return nil
}

// ResetState restores the default state and purges everything the subject's
// syncs have written: cached entities reachable from the index keys, the
// indices themselves, the preferences blob, and the pending conflicts.
func (t *stateTracker) ResetState(ctx context.Context, subject string) error {
	log := logger.FromContext(ctx)

	if err := t.purgeIndexedEntities(ctx, subject, collectionWorkspaces, models.EntityTypeWorkspace); err != nil {
		return err
	}
	if err := t.purgeIndexedEntities(ctx, subject, collectionUsers, models.EntityTypeUser); err != nil {
		return err
	}

	channelIDs, err := t.readIndex(ctx, store.SubjectIndexKey(t.namespace, subject, collectionChannels))
	if err != nil {
		return err
	}
	for _, channelID := range channelIDs {
		if err = t.purgeChannelMessages(ctx, channelID); err != nil {
			return err
		}
		if err = t.store.Delete(ctx, store.EntityKey(t.namespace, models.EntityTypeChannel, channelID)); err != nil {
			return fmt.Errorf("purge channel %s: %w", channelID, err)
		}
	}
	if err = t.store.Delete(ctx, store.SubjectIndexKey(t.namespace, subject, collectionChannels)); err != nil {
		return fmt.Errorf("purge channel index for %s: %w", subject, err)
	}

	if err = t.store.Delete(ctx, store.PreferencesKey(t.namespace, subject)); err != nil {
		return fmt.Errorf("purge preferences for %s: %w", subject, err)
	}
	if err = t.store.Delete(ctx, store.ConflictsKey(t.namespace, subject)); err != nil {
		return fmt.Errorf("purge conflicts for %s: %w", subject, err)
	}

	if err = t.writeState(ctx, subject, models.DefaultSyncState()); err != nil {
		return err
	}

	log.Info().
		Str("func", "stateTracker.ResetState").
		Str("subject", subject).
		Msg("sync state reset")
	return nil
}

func (t *stateTracker) purgeIndexedEntities(ctx context.Context, subject, collection string, entityType models.EntityType) error {
	indexKey := store.SubjectIndexKey(t.namespace, subject, collection)

	ids, err := t.readIndex(ctx, indexKey)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err = t.store.Delete(ctx, store.EntityKey(t.namespace, entityType, id)); err != nil {
			return fmt.Errorf("purge %s %s: %w", entityType, id, err)
		}
	}

	if err = t.store.Delete(ctx, indexKey); err != nil {
		return fmt.Errorf("purge %s index for %s: %w", collection, subject, err)
	}
	return nil
}

func (t *stateTracker) purgeChannelMessages(ctx context.Context, channelID string) error {
	indexKey := store.ChannelMessagesIndexKey(t.namespace, channelID)

	messageIDs, err := t.readIndex(ctx, indexKey)
	if err != nil {
		return err
	}
	for _, id := range messageIDs {
		if err = t.store.Delete(ctx, store.EntityKey(t.namespace, models.EntityTypeMessage, id)); err != nil {
			return fmt.Errorf("purge message %s: %w", id, err)
		}
		// keep_both copies ride along with their originals.
		if err = t.store.Delete(ctx, store.LocalCopyKey(t.namespace, models.EntityTypeMessage, id)); err != nil {
			return fmt.Errorf("purge message copy %s: %w", id, err)
		}
	}

	if err = t.store.Delete(ctx, indexKey); err != nil {
		return fmt.Errorf("purge message index for channel %s: %w", channelID, err)
	}
	return nil
}

// readIndex decodes a stored id list. An absent index reads as empty.
func (t *stateTracker) readIndex(ctx context.Context, key string) ([]string, error) {
	raw, err := t.store.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", key, err)
	}

	var ids []string
	if err = json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", key, err)
	}
	return ids, nil
}

// writeIndex persists an id list under key.
func (t *stateTracker) writeIndex(ctx context.Context, key string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode index %s: %w", key, err)
	}
	if err = t.store.Set(ctx, key, raw, 0); err != nil {
		return fmt.Errorf("write index %s: %w", key, err)
	}
	return nil
}
