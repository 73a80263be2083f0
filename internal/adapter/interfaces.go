// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the remote chat synchronization API.
//
// The primary abstraction is [DataFetcher], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPDataFetcher]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes and
// response bodies by mapHTTPError so that callers can use [errors.Is] for
// transport-agnostic error handling (e.g. [ErrInvalidSyncToken] for an
// expired cursor, [ErrVersionConflict] for 409).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-chat-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/data_fetcher_mock.go -package=mock

// FetchOptions narrows the bulk snapshot returned by an initial sync.
type FetchOptions struct {
	// MessageDays limits message history to the given number of days.
	// Non-positive means the server default.
	MessageDays int
	// IncludePreferences requests the subject's preferences blob alongside
	// the entity collections.
	IncludePreferences bool
}

// DataFetcher defines transport-agnostic access to the remote sync API.
// Implementations are responsible for serialisation, authentication header
// management, and mapping transport-level errors to the sentinel values
// defined in this package.
type DataFetcher interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the fetcher, or an
	// empty string if no token has been set yet.
	Token() string

	// FetchInitialSyncData retrieves the complete snapshot for subject:
	// workspaces, channels, users, recent messages, optionally preferences,
	// and the sync token to use for subsequent incremental syncs. Returns an
	// error if the request fails or the server responds with a non-2xx
	// status.
	FetchInitialSyncData(ctx context.Context, subject string, opts FetchOptions) (models.InitialSyncData, error)

	// FetchIncrementalSyncData retrieves the changes and deletions recorded
	// after syncToken, plus the next token to resume from. Returns
	// [ErrInvalidSyncToken] (wrapped) when the server no longer recognises
	// the token.
	FetchIncrementalSyncData(ctx context.Context, subject string, syncToken string) (models.IncrementalSyncData, error)

	// UploadChanges pushes locally resolved entity versions back to the
	// server. Returns [ErrVersionConflict] (wrapped) if the server rejects
	// the batch on an optimistic-locking conflict, or a partial
	// [models.UploadResult] with per-entity failures otherwise.
	UploadChanges(ctx context.Context, subject string, changes []models.SyncChange) (models.UploadResult, error)
}
