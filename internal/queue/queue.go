// Package queue implements the Redis-backed FIFO job queue workers pull
// submission IDs from: reservation with a visibility timeout so a worker
// that dies mid-judge doesn't lose the job, explicit ack on completion,
// and a sweep that requeues anything left past its deadline.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PendingKey holds submissions waiting to be picked up.
	PendingKey = "zroj:queue:pending"
	// ProcessingKey holds submissions a worker currently holds, scored by
	// the Unix millisecond timestamp their visibility timeout expires at.
	ProcessingKey = "zroj:queue:processing"
	// DefaultVisibility is how long a worker may hold a reserved job
	// before it is considered abandoned and requeued.
	DefaultVisibility = 30 * time.Second
)

// Client is the minimal queue contract a worker or enqueuer needs.
type Client interface {
	Enqueue(ctx context.Context, submissionID string) error
	Reserve(ctx context.Context, visibility time.Duration) (string, error)
	Ack(ctx context.Context, submissionID string) error
	RequeueExpired(ctx context.Context, now time.Time) ([]string, error)
}

// RedisQueue implements Client on top of go-redis.
type RedisQueue struct {
	client redis.Cmdable
}

// NewRedisQueue wraps an already-connected redis.Cmdable (a *redis.Client
// or a *redis.Client-compatible test double such as miniredis) with queue
// semantics.
func NewRedisQueue(client redis.Cmdable) *RedisQueue {
	return &RedisQueue{client: client}
}

// Enqueue pushes a submission ID onto the pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, submissionID string) error {
	return q.client.LPush(ctx, PendingKey, submissionID).Err()
}

var reserveScript = redis.NewScript(`
local v = redis.call('RPOP', KEYS[1])
if v then
  redis.call('ZADD', KEYS[2], ARGV[1], v)
end
return v
`)

// Reserve atomically moves one submission ID from pending to processing,
// scoring it with the moment its visibility timeout expires. Returns
// redis.Nil when the pending queue is empty.
func (q *RedisQueue) Reserve(ctx context.Context, visibility time.Duration) (string, error) {
	deadline := float64(time.Now().Add(visibility).UnixMilli())
	res, err := reserveScript.Run(ctx, q.client, []string{PendingKey, ProcessingKey}, deadline).Result()
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", redis.Nil
	}
	s, ok := res.(string)
	if !ok {
		return "", errors.New("queue: unexpected reserve response type")
	}
	return s, nil
}

// Ack removes a submission ID from processing once the worker has
// finished judging it.
func (q *RedisQueue) Ack(ctx context.Context, submissionID string) error {
	return q.client.ZRem(ctx, ProcessingKey, submissionID).Err()
}

var requeueScript = redis.NewScript(`
local vals = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if #vals > 0 then
  redis.call('ZREM', KEYS[1], unpack(vals))
  redis.call('LPUSH', KEYS[2], unpack(vals))
end
return vals
`)

// RequeueExpired moves every processing entry whose visibility deadline
// has passed back onto the pending list, and returns the submission IDs
// that were moved.
func (q *RedisQueue) RequeueExpired(ctx context.Context, now time.Time) ([]string, error) {
	score := float64(now.UnixMilli())
	res, err := requeueScript.Run(ctx, q.client, []string{ProcessingKey, PendingKey}, score).Result()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	raw, ok := res.([]interface{})
	if !ok {
		return nil, errors.New("queue: unexpected requeue response type")
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
