package config

import (
	"fmt"
	"time"
)

// Defaults applied by [GetEngineConfig] when the merged configuration leaves
// a field unset.
const (
	DefaultNamespace           = "chatapp"
	DefaultMessageHistoryDays  = 30
	DefaultAutoResolveStrategy = "keep_server"
	DefaultRequestTimeout      = 15 * time.Second
	DefaultSyncInterval        = 5 * time.Minute
	DefaultDBDriver            = "sqlite3"
	DefaultSQLiteDSN           = "sync-cache.db"
)

// EngineSync holds synchronization policy settings derived from the shared
// structured config.
type EngineSync struct {
	// Namespace is the key namespace for all cached entities and
	// sync-internal bookkeeping keys.
	Namespace string
	// MessageHistoryDays bounds the initial bulk import's message window.
	MessageHistoryDays int
	// IncludePreferences controls preference fetching during initial sync.
	IncludePreferences bool
	// AutoResolve enables the auto-resolver after incremental syncs.
	AutoResolve bool
	// AutoResolveStrategy is the strategy applied by the auto-resolver.
	AutoResolveStrategy string
}

// EngineAdapter holds network settings used by the engine's transport layer.
type EngineAdapter struct {
	// HTTPAddress is the base endpoint address of the remote sync API.
	HTTPAddress string
	// BearerToken is an optional pre-configured bearer token.
	BearerToken string
	// RequestTimeout is the timeout applied to every outbound round trip.
	RequestTimeout time.Duration
}

// EngineDB contains cache database connection settings for the engine.
type EngineDB struct {
	// Driver is the database driver name ("sqlite3" or "pgx").
	Driver string
	// DSN is the connection string used by the selected driver.
	DSN string
}

// EngineStorage groups engine storage backend settings.
type EngineStorage struct {
	// DB holds cache database settings.
	DB EngineDB
}

// EngineWorkers contains engine background worker settings.
type EngineWorkers struct {
	// SyncInterval defines how often the periodic sync job should run.
	SyncInterval time.Duration
}

// EngineConfig is the top-level engine configuration assembled from
// [StructuredConfig].
type EngineConfig struct {
	// Sync contains synchronization policy settings.
	Sync EngineSync
	// Adapter contains fetcher transport address and timeouts.
	Adapter EngineAdapter
	// Storage contains cache storage settings.
	Storage EngineStorage
	// Workers contains background job settings.
	Workers EngineWorkers
}

// GetEngineConfig builds and validates an engine-specific config view from
// the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the engine runtime, fills in defaults for unset fields, and
// validates the resulting [EngineConfig].
func GetEngineConfig() (*EngineConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	engineCfg := &EngineConfig{
		Sync: EngineSync{
			Namespace:           cfg.Sync.Namespace,
			MessageHistoryDays:  cfg.Sync.MessageHistoryDays,
			IncludePreferences:  cfg.Sync.IncludePreferences,
			AutoResolve:         cfg.Sync.AutoResolve,
			AutoResolveStrategy: cfg.Sync.AutoResolveStrategy,
		},
		Adapter: EngineAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			BearerToken:    cfg.Adapter.BearerToken,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: EngineStorage{
			DB: EngineDB{
				Driver: cfg.Storage.DB.Driver,
				DSN:    cfg.Storage.DB.DSN,
			},
		},
		Workers: EngineWorkers{SyncInterval: cfg.Workers.SyncInterval},
	}
	engineCfg.applyDefaults()

	return engineCfg, engineCfg.validate()
}

func (cfg *EngineConfig) applyDefaults() {
	if cfg.Sync.Namespace == "" {
		cfg.Sync.Namespace = DefaultNamespace
	}
	if cfg.Sync.MessageHistoryDays <= 0 {
		cfg.Sync.MessageHistoryDays = DefaultMessageHistoryDays
	}
	if cfg.Sync.AutoResolveStrategy == "" {
		cfg.Sync.AutoResolveStrategy = DefaultAutoResolveStrategy
	}
	if cfg.Adapter.RequestTimeout <= 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Workers.SyncInterval <= 0 {
		cfg.Workers.SyncInterval = DefaultSyncInterval
	}
	if cfg.Storage.DB.Driver == "" {
		cfg.Storage.DB.Driver = DefaultDBDriver
	}
	if cfg.Storage.DB.DSN == "" && cfg.Storage.DB.Driver == DefaultDBDriver {
		cfg.Storage.DB.DSN = DefaultSQLiteDSN
	}
}
