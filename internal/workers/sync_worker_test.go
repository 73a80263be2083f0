package workers

import (
	"context"
	"testing"
	"time"
)

// fakeSyncJob records the Start call it receives.
type fakeSyncJob struct {
	started  bool
	subject  string
	interval time.Duration
}

func (f *fakeSyncJob) Start(_ context.Context, subject string, interval time.Duration) {
	f.started = true
	f.subject = subject
	f.interval = interval
}

func (f *fakeSyncJob) Stop() {}

func TestSyncWorker_RunStartsJob(t *testing.T) {
	job := &fakeSyncJob{}
	w := NewSyncWorker(context.Background(), job, "alice", time.Minute)

	w.Run()

	if !job.started {
		t.Fatal("expected Run to start the sync job")
	}
	if job.subject != "alice" {
		t.Errorf("expected subject %q, got %q", "alice", job.subject)
	}
	if job.interval != time.Minute {
		t.Errorf("expected interval %v, got %v", time.Minute, job.interval)
	}
}
