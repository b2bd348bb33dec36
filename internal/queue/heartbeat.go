package queue

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"zroj/pkg/logger"
)

const (
	heartbeatPrefix = "zroj:worker:heartbeat:"
	heartbeatTTL    = 45 * time.Second
	heartbeatPeriod = 5 * time.Second
)

// HeartbeatKey returns the Redis key a worker's heartbeat is stored under.
func HeartbeatKey(workerID string) string {
	return heartbeatPrefix + workerID
}

// Heartbeat is the runtime status a worker periodically publishes so a
// dashboard can tell it is still alive. The queue's expiry sweep does not
// read it; requeueing depends only on reservation deadlines.
type Heartbeat struct {
	WorkerID       string    `json:"worker_id"`
	Hostname       string    `json:"hostname"`
	PID            int       `json:"pid"`
	Concurrency    int       `json:"concurrency"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	Status         string    `json:"status"`
	RunningCount   int       `json:"running_count"`
	CurrentJob     string    `json:"current_job,omitempty"`
	RunningJobs    []string  `json:"running_jobs,omitempty"`
	ProcessedTotal int64     `json:"processed_total"`
	FailedTotal    int64     `json:"failed_total"`
	LastError      string    `json:"last_error,omitempty"`
	MemoryRSSBytes uint64    `json:"memory_rss_bytes"`
	NumGoroutine   int       `json:"num_goroutine"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (h *Heartbeat) updateRuntimeStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.MemoryRSSBytes = ms.Sys
	h.NumGoroutine = runtime.NumGoroutine()
}

// SaveHeartbeat writes a heartbeat as JSON with a TTL so a crashed worker
// disappears from the dashboard instead of reporting stale status forever.
func SaveHeartbeat(ctx context.Context, client redis.Cmdable, hb Heartbeat) error {
	hb.UpdatedAt = time.Now()
	data, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return client.Set(ctx, HeartbeatKey(hb.WorkerID), data, heartbeatTTL).Err()
}

// HeartbeatState tracks one worker process's in-flight jobs and flushes a
// Heartbeat to Redis on a fixed period.
type HeartbeatState struct {
	mu      sync.Mutex
	hb      Heartbeat
	running map[string]time.Time
	ticker  *time.Ticker
}

// NewHeartbeatState creates a HeartbeatState for a worker with the given
// ID, hostname, and judging concurrency.
func NewHeartbeatState(workerID, hostname string, concurrency int) *HeartbeatState {
	now := time.Now()
	return &HeartbeatState{
		hb: Heartbeat{
			WorkerID:    workerID,
			Hostname:    hostname,
			PID:         os.Getpid(),
			Concurrency: concurrency,
			Status:      "starting",
			RunningJobs: []string{},
			StartedAt:   now,
			UpdatedAt:   now,
		},
		running: make(map[string]time.Time),
		ticker:  time.NewTicker(heartbeatPeriod),
	}
}

// Start flushes immediately and then on every tick until ctx is done.
func (s *HeartbeatState) Start(ctx context.Context, client redis.Cmdable) {
	s.flush(ctx, client)
	defer s.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ticker.C:
			s.flush(ctx, client)
		}
	}
}

// JobStarted marks a submission ID as in-flight.
func (s *HeartbeatState) JobStarted(submissionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hb.Status = "busy"
	s.running[submissionID] = time.Now()
	s.updateRunningFieldsLocked()
}

// JobFinished marks a submission ID as done, recording err if the judge
// run itself failed (not a verdict, a system-level error).
func (s *HeartbeatState) JobFinished(submissionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, submissionID)
	s.hb.ProcessedTotal++
	if err != nil {
		s.hb.FailedTotal++
		s.hb.LastError = err.Error()
	}
	if len(s.running) == 0 {
		s.hb.Status = "idle"
	} else {
		s.hb.Status = "busy"
	}
	s.updateRunningFieldsLocked()
}

func (s *HeartbeatState) updateRunningFieldsLocked() {
	s.hb.RunningCount = len(s.running)
	s.hb.RunningJobs = s.hb.RunningJobs[:0]
	for job := range s.running {
		if len(s.hb.RunningJobs) >= 3 {
			break
		}
		s.hb.RunningJobs = append(s.hb.RunningJobs, job)
	}
	if s.hb.RunningCount == 0 {
		s.hb.CurrentJob = ""
	} else {
		s.hb.CurrentJob = s.hb.RunningJobs[0]
	}
}

func (s *HeartbeatState) flush(ctx context.Context, client redis.Cmdable) {
	s.mu.Lock()
	s.hb.UptimeSeconds = int64(time.Since(s.hb.StartedAt).Seconds())
	s.hb.updateRuntimeStats()
	hbCopy := s.hb
	s.mu.Unlock()
	if err := SaveHeartbeat(ctx, client, hbCopy); err != nil {
		logger.Warn(ctx, "heartbeat flush failed", zap.Error(err))
	}
}
