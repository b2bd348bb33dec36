package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"zroj/pkg/contextkey"
	"zroj/pkg/logger"
)

// Handler judges one submission, returning a system-level error only when
// the attempt itself should be retried (a crashed sandbox, a storage
// failure) — a bad verdict is not an error.
type Handler func(ctx context.Context, submissionID string) error

// Worker pulls submission IDs from a Client, runs them through a Handler,
// acks on success, and publishes a heartbeat while it works. A failed
// reservation that is never acked is picked back up by a sweeper once its
// visibility timeout elapses.
type Worker struct {
	ID         string
	Queue      Client
	Visibility time.Duration
	Heartbeat  *HeartbeatState
	Handle     Handler
}

// NewWorker builds a Worker with the default visibility timeout.
func NewWorker(id string, q Client, handle Handler, hb *HeartbeatState) *Worker {
	return &Worker{ID: id, Queue: q, Visibility: DefaultVisibility, Heartbeat: hb, Handle: handle}
}

// Run reserves and judges submissions in a loop until ctx is canceled.
// pollInterval controls how long to wait before retrying an empty queue.
func (w *Worker) Run(ctx context.Context, pollInterval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		submissionID, err := w.Queue.Reserve(ctx, w.Visibility)
		if err != nil {
			if err == context.Canceled {
				return
			}
			time.Sleep(pollInterval)
			continue
		}

		w.process(ctx, submissionID)
	}
}

func (w *Worker) process(ctx context.Context, submissionID string) {
	ctx = context.WithValue(ctx, contextkey.SubmissionID, submissionID)
	ctx = context.WithValue(ctx, contextkey.WorkerID, w.ID)
	if w.Heartbeat != nil {
		w.Heartbeat.JobStarted(submissionID)
	}

	err := w.Handle(ctx, submissionID)

	if w.Heartbeat != nil {
		w.Heartbeat.JobFinished(submissionID, err)
	}
	if err != nil {
		logger.Error(ctx, "judge attempt failed, leaving for visibility-timeout requeue", zap.Error(err))
		return
	}
	if ackErr := w.Queue.Ack(ctx, submissionID); ackErr != nil {
		logger.Error(ctx, "failed to ack submission", zap.Error(ackErr))
	}
}

// Sweeper periodically requeues processing entries whose visibility
// timeout has expired, so a worker that died mid-judge doesn't strand its
// job forever.
type Sweeper struct {
	Queue    Client
	Interval time.Duration
}

// NewSweeper builds a Sweeper checking every interval.
func NewSweeper(q Client, interval time.Duration) *Sweeper {
	return &Sweeper{Queue: q, Interval: interval}
}

// Run loops the sweep until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requeued, err := s.Queue.RequeueExpired(ctx, time.Now())
			if err != nil {
				logger.Error(ctx, "requeue sweep failed", zap.Error(err))
				continue
			}
			if len(requeued) > 0 {
				logger.Warn(ctx, "requeued expired submissions", zap.Int("count", len(requeued)))
			}
		}
	}
}
