package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs returns a
// zero-value StructuredConfig.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesMultipleConfigs verifies that fields from multiple configs
// are merged into a single result.
func TestBuild_MergesMultipleConfigs(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Sync: Sync{Namespace: "chatapp"}},
		&StructuredConfig{Adapter: Adapter{HTTPAddress: "localhost:8080"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "chatapp", cfg.Sync.Namespace)
	assert.Equal(t, "localhost:8080", cfg.Adapter.HTTPAddress)
}

// TestBuild_FirstNonZeroFieldWins verifies mergo's semantics: a field already
// populated by an earlier config is not overridden by a later one.
func TestBuild_FirstNonZeroFieldWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Sync: Sync{Namespace: "first"}},
		&StructuredConfig{Sync: Sync{Namespace: "second", MessageHistoryDays: 7}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Sync.Namespace)
	assert.Equal(t, 7, cfg.Sync.MessageHistoryDays)
}

// TestBuild_SingleConfig verifies that a single config is returned as-is.
func TestBuild_SingleConfig(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{
		Sync:    Sync{Namespace: "single", MessageHistoryDays: 30},
		Workers: Workers{SyncInterval: 5 * time.Minute},
	})

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "single", cfg.Sync.Namespace)
	assert.Equal(t, 30, cfg.Sync.MessageHistoryDays)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoPathSpecified verifies that withJSON is a no-op when no prior
// source provided a JSON config path.
func TestWithJSON_NoPathSpecified(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b = b.withJSON()
	require.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestWithJSON_PathSpecified verifies that the JSON file pointed at by an
// earlier source is parsed and appended.
func TestWithJSON_PathSpecified(t *testing.T) {
	var payload StructuredJSONConfig
	payload.Sync.Namespace = "fromjson"
	payload.Adapter.RequestTimeout = Duration(30 * time.Second)
	path := writeTempJSONConfig(t, payload)

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})

	b = b.withJSON()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "fromjson", b.configs[1].Sync.Namespace)
	assert.Equal(t, 30*time.Second, b.configs[1].Adapter.RequestTimeout)
}

// TestWithJSON_FileMissing verifies that a dangling JSON path surfaces as a
// builder error.
func TestWithJSON_FileMissing(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/does/not/exist.json"})

	b = b.withJSON()
	require.Error(t, b.err)
}
