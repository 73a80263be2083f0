// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
//
// Currently a no-op placeholder; raw-config validation rules are applied on
// the [EngineConfig] view instead, after defaults have been filled in.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	return nil
}

// manual_merge is deliberately absent: the auto-resolver has no merged
// payload to work with.
var knownStrategies = map[string]struct{}{
	"keep_local":  {},
	"keep_server": {},
	"keep_both":   {},
	"discard":     {},
}

var knownDrivers = map[string]struct{}{
	"sqlite3": {},
	"pgx":     {},
}

func (cfg *EngineConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}
	if _, ok := knownDrivers[cfg.Storage.DB.Driver]; !ok {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Namespace == "" {
		return ErrInvalidSyncConfigs
	}
	if _, ok := knownStrategies[cfg.Sync.AutoResolveStrategy]; !ok {
		return ErrInvalidSyncConfigs
	}

	if cfg.Workers.SyncInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
