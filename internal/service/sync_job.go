package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
)

type syncJob struct {
	engine SyncEngine
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a [SyncJob] driving engine on a ticker. The job is idle
// until Start is called.
func NewSyncJob(engine SyncEngine, log *logger.Logger) SyncJob {
	return &syncJob{engine: engine, logger: log}
}

// Start implements [SyncJob]. It stops any previously running job, then
// launches a background goroutine that syncs subject every interval. If
// interval is zero or negative it defaults to 5 minutes. The goroutine exits
// when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, subject string, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.syncOnce(jobCtx, subject)
			}
		}
	}()
}

// syncOnce runs one full pass: an initial sync when the subject has no usable
// token yet, otherwise incremental pages drained until HasMore clears. An
// invalidated token falls back to a fresh initial sync on the same pass.
func (j *syncJob) syncOnce(ctx context.Context, subject string) {
	st, err := j.engine.GetSyncState(ctx, subject)
	if err != nil {
		j.logger.Err(err).
			Str("func", "syncJob.syncOnce").
			Str("subject", subject).
			Msg("failed to read sync state")
		return
	}

	if !st.HasCompletedInitialSync || st.SyncToken == "" {
		if _, err = j.engine.PerformInitialSync(ctx, subject); err != nil {
			j.logReject(subject, err)
		}
		return
	}

	token := st.SyncToken
	for {
		delta, err := j.engine.SyncSince(ctx, subject, token)
		if err != nil {
			var tokenErr *InvalidSyncTokenError
			if errors.As(err, &tokenErr) {
				if _, err = j.engine.PerformInitialSync(ctx, subject); err != nil {
					j.logReject(subject, err)
				}
				return
			}
			j.logReject(subject, err)
			return
		}
		if !delta.HasMore {
			return
		}
		token = delta.NextSyncToken
	}
}

func (j *syncJob) logReject(subject string, err error) {
	var inProgress *SyncInProgressError
	if errors.As(err, &inProgress) {
		// Another caller is syncing this subject; the next tick retries.
		j.logger.Debug().
			Str("func", "syncJob.syncOnce").
			Str("subject", subject).
			Msg("subject busy, skipping tick")
		return
	}
	j.logger.Err(err).
		Str("func", "syncJob.syncOnce").
		Str("subject", subject).
		Msg("periodic sync failed")
}

// Stop implements [SyncJob]. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the job
// is not running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
