package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestEnqueueReserveAck(t *testing.T) {
	client := newTestClient(t)
	q := NewRedisQueue(client)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "sub-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	id, err := q.Reserve(ctx, 30*time.Second)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if id != "sub-1" {
		t.Fatalf("unexpected reserved id: %q", id)
	}

	if err := q.Ack(ctx, id); err != nil {
		t.Fatalf("ack: %v", err)
	}

	expired, err := q.RequeueExpired(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expected nothing left to requeue after ack, got %v", expired)
	}
}

func TestReserveEmptyQueueReturnsNil(t *testing.T) {
	client := newTestClient(t)
	q := NewRedisQueue(client)

	_, err := q.Reserve(context.Background(), time.Second)
	if err != redis.Nil {
		t.Fatalf("expected redis.Nil for an empty queue, got %v", err)
	}
}

// TestRequeueExpiredMovesBackToPending verifies an unacked reservation
// past its visibility deadline is requeued for another worker to pick up.
func TestRequeueExpiredMovesBackToPending(t *testing.T) {
	client := newTestClient(t)
	q := NewRedisQueue(client)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "sub-2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Reserve(ctx, time.Millisecond); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	requeued, err := q.RequeueExpired(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(requeued) != 1 || requeued[0] != "sub-2" {
		t.Fatalf("expected sub-2 requeued, got %v", requeued)
	}

	id, err := q.Reserve(ctx, time.Minute)
	if err != nil {
		t.Fatalf("reserve after requeue: %v", err)
	}
	if id != "sub-2" {
		t.Fatalf("expected to reserve the requeued submission, got %q", id)
	}
}

func TestHeartbeatSaveAndExpiry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	hb := Heartbeat{WorkerID: "w1", Status: "idle"}
	if err := SaveHeartbeat(ctx, client, hb); err != nil {
		t.Fatalf("save heartbeat: %v", err)
	}

	val, err := client.Get(ctx, HeartbeatKey("w1")).Result()
	if err != nil {
		t.Fatalf("get heartbeat: %v", err)
	}
	if val == "" {
		t.Fatalf("expected a non-empty heartbeat payload")
	}
}
