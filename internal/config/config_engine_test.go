package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEngineConfig() *EngineConfig {
	return &EngineConfig{
		Sync: EngineSync{
			Namespace:           "chatapp",
			MessageHistoryDays:  30,
			AutoResolveStrategy: "keep_server",
		},
		Adapter: EngineAdapter{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 15 * time.Second,
		},
		Storage: EngineStorage{DB: EngineDB{Driver: "sqlite3", DSN: "sync-cache.db"}},
		Workers: EngineWorkers{SyncInterval: 5 * time.Minute},
	}
}

func TestEngineConfigValidate_Valid(t *testing.T) {
	require.NoError(t, validEngineConfig().validate())
}

func TestEngineConfigValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EngineConfig)
		wantErr error
	}{
		{"empty DSN", func(c *EngineConfig) { c.Storage.DB.DSN = "" }, ErrInvalidStorageConfigs},
		{"unknown driver", func(c *EngineConfig) { c.Storage.DB.Driver = "oracle" }, ErrInvalidStorageConfigs},
		{"empty adapter address", func(c *EngineConfig) { c.Adapter.HTTPAddress = "" }, ErrInvalidAdapterConfigs},
		{"zero request timeout", func(c *EngineConfig) { c.Adapter.RequestTimeout = 0 }, ErrInvalidAdapterConfigs},
		{"empty namespace", func(c *EngineConfig) { c.Sync.Namespace = "" }, ErrInvalidSyncConfigs},
		{"manual_merge auto strategy", func(c *EngineConfig) { c.Sync.AutoResolveStrategy = "manual_merge" }, ErrInvalidSyncConfigs},
		{"unknown auto strategy", func(c *EngineConfig) { c.Sync.AutoResolveStrategy = "coin_flip" }, ErrInvalidSyncConfigs},
		{"zero sync interval", func(c *EngineConfig) { c.Workers.SyncInterval = 0 }, ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validEngineConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.validate(), tt.wantErr)
		})
	}
}

func TestEngineConfigApplyDefaults(t *testing.T) {
	cfg := &EngineConfig{}
	cfg.applyDefaults()

	assert.Equal(t, DefaultNamespace, cfg.Sync.Namespace)
	assert.Equal(t, DefaultMessageHistoryDays, cfg.Sync.MessageHistoryDays)
	assert.Equal(t, DefaultAutoResolveStrategy, cfg.Sync.AutoResolveStrategy)
	assert.Equal(t, DefaultRequestTimeout, cfg.Adapter.RequestTimeout)
	assert.Equal(t, DefaultSyncInterval, cfg.Workers.SyncInterval)
	assert.Equal(t, DefaultDBDriver, cfg.Storage.DB.Driver)
	assert.Equal(t, DefaultSQLiteDSN, cfg.Storage.DB.DSN)
}

func TestEngineConfigApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := validEngineConfig()
	cfg.Sync.MessageHistoryDays = 7
	cfg.Adapter.RequestTimeout = time.Minute

	cfg.applyDefaults()

	assert.Equal(t, 7, cfg.Sync.MessageHistoryDays)
	assert.Equal(t, time.Minute, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "chatapp", cfg.Sync.Namespace)
}
