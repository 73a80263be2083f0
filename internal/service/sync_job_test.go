package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/models"
)

// stubEngine is a minimal SyncEngine for job tests; a full gomock setup is
// overkill for counting calls across goroutines.
type stubEngine struct {
	mu sync.Mutex

	state        models.SyncState
	initialCalls int
	sinceCalls   []string
	sinceResults []models.IncrementalSyncData
	sinceErr     error
}

func (s *stubEngine) PerformInitialSync(_ context.Context, _ string) (models.InitialSyncData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialCalls++
	s.state.HasCompletedInitialSync = true
	s.state.SyncToken = "tok-1"
	return models.InitialSyncData{SyncToken: "tok-1"}, nil
}

func (s *stubEngine) SyncSince(_ context.Context, _ string, token string) (models.IncrementalSyncData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinceCalls = append(s.sinceCalls, token)
	if s.sinceErr != nil {
		return models.IncrementalSyncData{}, s.sinceErr
	}
	if len(s.sinceResults) == 0 {
		return models.IncrementalSyncData{NextSyncToken: token}, nil
	}
	next := s.sinceResults[0]
	s.sinceResults = s.sinceResults[1:]
	s.state.SyncToken = next.NextSyncToken
	return next, nil
}

func (s *stubEngine) GetSyncState(_ context.Context, _ string) (models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *stubEngine) ResolveConflict(context.Context, string, models.SyncConflict, models.ConflictResolution) error {
	return nil
}
func (s *stubEngine) AutoResolveConflicts(context.Context, string) (int, error) { return 0, nil }
func (s *stubEngine) GetConflicts(context.Context, string) ([]models.SyncConflict, error) {
	return nil, nil
}
func (s *stubEngine) ResetSyncState(context.Context, string) error { return nil }

func (s *stubEngine) OnSyncCompleted(SyncCompletedHandler) func() { return func() {} }

func (s *stubEngine) OnConflictDetected(ConflictDetectedHandler) func() { return func() {} }

func (s *stubEngine) OnConflictResolved(ConflictResolvedHandler) func() { return func() {} }

func (s *stubEngine) counts() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialCalls, append([]string(nil), s.sinceCalls...)
}

func TestSyncJob_RunsInitialSyncFirst(t *testing.T) {
	engine := &stubEngine{state: models.DefaultSyncState()}
	job := NewSyncJob(engine, logger.Nop())

	job.Start(context.Background(), "alice", 20*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		initial, _ := engine.counts()
		return initial >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSyncJob_DrainsIncrementalPages(t *testing.T) {
	engine := &stubEngine{
		state: models.SyncState{
			Status:                  models.SyncStatusIdle,
			SyncToken:               "tok-1",
			HasCompletedInitialSync: true,
		},
		sinceResults: []models.IncrementalSyncData{
			{NextSyncToken: "tok-2", HasMore: true},
			{NextSyncToken: "tok-3"},
		},
	}
	job := NewSyncJob(engine, logger.Nop())

	job.Start(context.Background(), "alice", 20*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		_, since := engine.counts()
		return len(since) >= 2
	}, time.Second, 5*time.Millisecond)

	_, since := engine.counts()
	assert.Equal(t, "tok-1", since[0])
	assert.Equal(t, "tok-2", since[1])

	initial, _ := engine.counts()
	assert.Zero(t, initial)
}

func TestSyncJob_InvalidTokenFallsBackToInitialSync(t *testing.T) {
	engine := &stubEngine{
		state: models.SyncState{
			SyncToken:               "stale",
			HasCompletedInitialSync: true,
		},
		sinceErr: &InvalidSyncTokenError{Token: "stale"},
	}
	job := NewSyncJob(engine, logger.Nop())

	job.Start(context.Background(), "alice", 20*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		initial, _ := engine.counts()
		return initial >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSyncJob_StopTerminatesGoroutine(t *testing.T) {
	engine := &stubEngine{state: models.DefaultSyncState()}
	job := NewSyncJob(engine, logger.Nop())

	job.Start(context.Background(), "alice", 10*time.Millisecond)

	require.Eventually(t, func() bool {
		initial, _ := engine.counts()
		return initial >= 1
	}, time.Second, 5*time.Millisecond)

	job.Stop()
	initialAfterStop, _ := engine.counts()

	time.Sleep(50 * time.Millisecond)
	initial, _ := engine.counts()
	assert.Equal(t, initialAfterStop, initial)

	// Stop is safe to call again
	job.Stop()
}

func TestSyncJob_RestartReplacesPreviousRun(t *testing.T) {
	engine := &stubEngine{state: models.DefaultSyncState()}
	job := NewSyncJob(engine, logger.Nop())

	ctx := context.Background()
	job.Start(ctx, "alice", 10*time.Millisecond)
	job.Start(ctx, "alice", 10*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		initial, _ := engine.counts()
		return initial >= 1
	}, time.Second, 5*time.Millisecond)
}
