package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// localStorage is a map-backed [KeyValueStorage] with optional JSON file
// persistence. It backs tests and short-lived tooling where a SQL cache is
// overkill; the durable backends live in kv_repository.go.
type localStorage struct {
	path     string
	inMemory bool

	mu    sync.RWMutex
	items map[string]localEntry
}

type localEntry struct {
	Value   []byte `json:"value"`
	Version int64  `json:"version"`
}

type localPersistedState struct {
	Items map[string]localEntry `json:"items"`
}

// NewLocalStorage opens a [KeyValueStorage] stored at path. An empty path or
// ":memory:" yields a purely in-memory store.
func NewLocalStorage(path string) (KeyValueStorage, error) {
	if path == "" {
		path = ":memory:"
	}

	inMemory := path == ":memory:" || path == "memory"
	s := &localStorage{
		path:     path,
		inMemory: inMemory,
		items:    make(map[string]localEntry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *localStorage) load() error {
	if s.inMemory {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read local storage file: %w", err)
	}

	var st localPersistedState
	if err = json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode local storage file: %w", err)
	}

	if st.Items == nil {
		st.Items = make(map[string]localEntry)
	}
	s.items = st.Items

	return nil
}

func (s *localStorage) persist() error {
	if s.inMemory {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create local storage dir: %w", err)
		}
	}

	data, err := json.Marshal(localPersistedState{Items: s.items})
	if err != nil {
		return fmt.Errorf("encode local storage state: %w", err)
	}
	if err = os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write local storage file: %w", err)
	}
	return nil
}

func (s *localStorage) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := s.GetWithMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (s *localStorage) GetWithMetadata(_ context.Context, key string) (ValueWithMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[key]
	if !ok {
		return ValueWithMetadata{}, fmt.Errorf("get %q: %w", key, ErrKeyNotFound)
	}

	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)

	return ValueWithMetadata{
		Value:    value,
		Metadata: Metadata{Version: entry.Version},
	}, nil
}

func (s *localStorage) Set(_ context.Context, key string, value []byte, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[key] = localEntry{Value: stored, Version: version}

	return s.persist()
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)

	return s.persist()
}

func (s *localStorage) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	return keys, nil
}
