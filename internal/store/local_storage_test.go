package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SetGetDelete(t *testing.T) {
	s, err := NewLocalStorage(":memory:")
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "chatapp:user:u1", []byte(`{"name":"alice"}`), 3))

	item, err := s.GetWithMetadata(ctx, "chatapp:user:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice"}`, string(item.Value))
	assert.Equal(t, int64(3), item.Metadata.Version)

	require.NoError(t, s.Delete(ctx, "chatapp:user:u1"))

	_, err = s.Get(ctx, "chatapp:user:u1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is a no-op.
	assert.NoError(t, s.Delete(ctx, "chatapp:user:u1"))
}

func TestLocalStorage_OverwriteReplacesValueAndVersion(t *testing.T) {
	s, err := NewLocalStorage("")
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 1))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 2))

	item, err := s.GetWithMetadata(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), item.Value)
	assert.Equal(t, int64(2), item.Metadata.Version)
}

func TestLocalStorage_GetReturnsCopy(t *testing.T) {
	s, err := NewLocalStorage(":memory:")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("abc"), 1))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestLocalStorage_KeysSortedByPrefix(t *testing.T) {
	s, err := NewLocalStorage(":memory:")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "chatapp:message:m2", []byte("{}"), 1))
	require.NoError(t, s.Set(ctx, "chatapp:message:m1", []byte("{}"), 1))
	require.NoError(t, s.Set(ctx, "chatapp:channel:c1", []byte("{}"), 1))

	keys, err := s.Keys(ctx, "chatapp:message:")
	require.NoError(t, err)
	assert.Equal(t, []string{"chatapp:message:m1", "chatapp:message:m2"}, keys)

	empty, err := s.Keys(ctx, "chatapp:workspace:")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLocalStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	s, err := NewLocalStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "chatapp:state:alice", []byte(`{"status":"idle"}`), 0))

	reopened, err := NewLocalStorage(path)
	require.NoError(t, err)

	item, err := reopened.GetWithMetadata(ctx, "chatapp:state:alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"idle"}`, string(item.Value))
	assert.Equal(t, int64(0), item.Metadata.Version)
}
