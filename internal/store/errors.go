package store

import "errors"

// Sentinel errors returned by storage methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrKeyNotFound is returned by Get and GetWithMetadata when the
	// requested key does not exist in the store.
	ErrKeyNotFound = errors.New("key not found")
)
