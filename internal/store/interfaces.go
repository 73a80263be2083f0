// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store provides the versioned key-value cache consumed by the sync
// engine.
//
// The primary abstraction is [KeyValueStorage]: a flat namespace of opaque
// values with per-key version metadata. Two SQL-backed implementations exist,
// sharing one repository over database/sql: SQLite for the local client
// cache ([NewConnectSQLite]) and PostgreSQL for shared deployments
// ([NewConnectPostgres]). The schema is managed by goose migrations.
package store

import (
	"context"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/key_value_storage_mock.go -package=mock

// Metadata carries per-key bookkeeping stored alongside a value.
type Metadata struct {
	// Version is the entity version recorded when the value was written.
	// Zero for keys written without version information.
	Version int64
}

// ValueWithMetadata is the result of a metadata-aware read.
type ValueWithMetadata struct {
	Value    []byte
	Metadata Metadata
}

// KeyValueStorage is a versioned key-value store with prefix scans. All
// methods are safe for concurrent use. Absent keys are reported via
// [ErrKeyNotFound]; Delete is idempotent and never fails on absent keys.
type KeyValueStorage interface {
	// Get returns the value stored under key, or ErrKeyNotFound (wrapped)
	// if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetWithMetadata returns the value and its version metadata, or
	// ErrKeyNotFound (wrapped) if the key does not exist.
	GetWithMetadata(ctx context.Context, key string) (ValueWithMetadata, error)

	// Set writes value under key at the given version, overwriting any
	// previous value and version.
	Set(ctx context.Context, key string, value []byte, version int64) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys beginning with prefix, sorted
	// lexicographically. An empty result is not an error.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
