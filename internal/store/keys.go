package store

import (
	"strings"

	"github.com/MKhiriev/go-chat-sync/models"
)

// Key namespacing convention:
//
//	{ns}:{entityType}:{entityID}          cached entity payloads
//	{ns}:state:{subject}                  per-subject sync state
//	{ns}:conflicts:{subject}              per-subject pending conflicts
//	{ns}:preferences:{subject}            subject preferences blob
//	{ns}:index:{subject}:workspaces       derived id lists for later queries
//	{ns}:index:{subject}:channels
//	{ns}:index:channel:{channelID}:messages
//
// Index keys are derived, not authoritative; they are rebuilt by every
// initial sync and purged on reset.

const localCopySuffix = "_local_copy"

// EntityKey returns the storage key of one cached entity.
func EntityKey(ns string, entityType models.EntityType, entityID string) string {
	return ns + ":" + string(entityType) + ":" + entityID
}

// LocalCopyKey returns the sibling key used by the keep_both resolution
// strategy to preserve the local edit next to the server's copy.
func LocalCopyKey(ns string, entityType models.EntityType, entityID string) string {
	return EntityKey(ns, entityType, entityID+localCopySuffix)
}

// StateKey returns the bookkeeping key of a subject's sync state record.
func StateKey(ns, subject string) string {
	return ns + ":state:" + subject
}

// ConflictsKey returns the bookkeeping key of a subject's pending conflicts.
func ConflictsKey(ns, subject string) string {
	return ns + ":conflicts:" + subject
}

// PreferencesKey returns the key of a subject's preferences blob.
func PreferencesKey(ns, subject string) string {
	return ns + ":preferences:" + subject
}

// SubjectIndexKey returns the key of a derived id-list index owned by a
// subject (e.g. collection "workspaces" or "channels").
func SubjectIndexKey(ns, subject, collection string) string {
	return ns + ":index:" + subject + ":" + collection
}

// ChannelMessagesIndexKey returns the key of the derived channel-to-messages
// index.
func ChannelMessagesIndexKey(ns, channelID string) string {
	return ns + ":index:channel:" + channelID + ":messages"
}

// EntityPrefix returns the scan prefix covering every cached entity of one
// type.
func EntityPrefix(ns string, entityType models.EntityType) string {
	return ns + ":" + string(entityType) + ":"
}

// EntityIDFromKey extracts the entity id from a key produced by [EntityKey].
// Returns the id and true on success, or "" and false when the key does not
// belong to the given namespace and type.
func EntityIDFromKey(key, ns string, entityType models.EntityType) (string, bool) {
	prefix := EntityPrefix(ns, entityType)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}
