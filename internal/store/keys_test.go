package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-chat-sync/models"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "chatapp:message:m1", EntityKey("chatapp", models.EntityTypeMessage, "m1"))
	assert.Equal(t, "chatapp:message:m1_local_copy", LocalCopyKey("chatapp", models.EntityTypeMessage, "m1"))
	assert.Equal(t, "chatapp:state:alice", StateKey("chatapp", "alice"))
	assert.Equal(t, "chatapp:conflicts:alice", ConflictsKey("chatapp", "alice"))
	assert.Equal(t, "chatapp:preferences:alice", PreferencesKey("chatapp", "alice"))
	assert.Equal(t, "chatapp:index:alice:workspaces", SubjectIndexKey("chatapp", "alice", "workspaces"))
	assert.Equal(t, "chatapp:index:channel:c7:messages", ChannelMessagesIndexKey("chatapp", "c7"))
	assert.Equal(t, "chatapp:channel:", EntityPrefix("chatapp", models.EntityTypeChannel))
}

func TestEntityIDFromKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		ns         string
		entityType models.EntityType
		wantID     string
		wantOK     bool
	}{
		{
			name:       "matching key",
			key:        "chatapp:message:m1",
			ns:         "chatapp",
			entityType: models.EntityTypeMessage,
			wantID:     "m1",
			wantOK:     true,
		},
		{
			name:       "wrong namespace",
			key:        "other:message:m1",
			ns:         "chatapp",
			entityType: models.EntityTypeMessage,
			wantOK:     false,
		},
		{
			name:       "wrong entity type",
			key:        "chatapp:channel:c1",
			ns:         "chatapp",
			entityType: models.EntityTypeMessage,
			wantOK:     false,
		},
		{
			name:       "id containing separator",
			key:        "chatapp:message:m1:rev2",
			ns:         "chatapp",
			entityType: models.EntityTypeMessage,
			wantID:     "m1:rev2",
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := EntityIDFromKey(tt.key, tt.ns, tt.entityType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
