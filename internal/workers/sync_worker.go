package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-sync/internal/service"
)

// syncWorker adapts a [service.SyncJob] to the Worker interface so the
// periodic sync can run alongside other background workers.
type syncWorker struct {
	ctx      context.Context
	job      service.SyncJob
	subject  string
	interval time.Duration
}

// NewSyncWorker returns a Worker that starts job for subject every interval
// when Run is called. The job stops when ctx is cancelled.
func NewSyncWorker(ctx context.Context, job service.SyncJob, subject string, interval time.Duration) Worker {
	return &syncWorker{ctx: ctx, job: job, subject: subject, interval: interval}
}

func (w *syncWorker) Run() {
	w.job.Start(w.ctx, w.subject, w.interval)
}
