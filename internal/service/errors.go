package service

import (
	"errors"
	"fmt"
)

// ErrSync is the shared sentinel wrapped by every typed error in this
// package. Callers that do not care about the failure class can test
// errors.Is(err, service.ErrSync).
var ErrSync = errors.New("sync error")

// SyncInProgressError reports that an operation was rejected because another
// sync operation already holds the subject's guard.
type SyncInProgressError struct {
	Subject string
}

func (e *SyncInProgressError) Error() string {
	return fmt.Sprintf("sync already in progress for subject %s", e.Subject)
}

func (e *SyncInProgressError) Unwrap() error { return ErrSync }

// SyncFailedError reports a failed sync protocol run. Phase is "initial" or
// "incremental".
type SyncFailedError struct {
	Phase string
	Err   error
}

func (e *SyncFailedError) Error() string {
	return fmt.Sprintf("%s sync failed: %v", e.Phase, e.Err)
}

func (e *SyncFailedError) Unwrap() error { return e.Err }

// Is reports ErrSync membership in addition to the wrapped chain.
func (e *SyncFailedError) Is(target error) bool { return target == ErrSync }

// InvalidSyncTokenError reports that the server no longer recognises the
// subject's incremental sync cursor. The caller must restart from an initial
// sync.
type InvalidSyncTokenError struct {
	Token string
}

func (e *InvalidSyncTokenError) Error() string {
	return fmt.Sprintf("invalid sync token %q", e.Token)
}

func (e *InvalidSyncTokenError) Unwrap() error { return ErrSync }

// ConflictResolutionError reports a failed conflict resolution attempt. The
// conflict stays on the pending list.
type ConflictResolutionError struct {
	ConflictID string
	Err        error
}

func (e *ConflictResolutionError) Error() string {
	return fmt.Sprintf("resolution of conflict %s failed: %v", e.ConflictID, e.Err)
}

func (e *ConflictResolutionError) Unwrap() error { return e.Err }

// Is reports ErrSync membership in addition to the wrapped chain.
func (e *ConflictResolutionError) Is(target error) bool { return target == ErrSync }
