// Package queue implements a durable Redis-backed work queue for thumbnail
// jobs. Producers LPUSH onto the main list; consumers atomically move a
// message into a processing list (BRPOPLPUSH), so a crashed worker leaves
// its message recoverable. Acked messages are removed from the processing
// list; failed messages additionally land on a failed list for external
// retry policy.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maverick-lab/filebox/internal/models"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("filebox-queue")

// dequeueBlock bounds each blocking pop so consumers can observe context
// cancellation between polls.
const dequeueBlock = 5 * time.Second

// Job is a dequeued message. The raw payload is retained so the message can
// be removed from the processing list byte-for-byte on ack or fail.
type Job struct {
	Payload models.ThumbnailJob
	raw     string
}

// RedisQueue is a durable list-based queue on a Redis client
type RedisQueue struct {
	client *redis.Client
	name   string
}

// NewRedisQueue returns a queue named name on the given client
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

func (q *RedisQueue) processingList() string {
	return q.name + ":processing"
}

func (q *RedisQueue) failedList() string {
	return q.name + ":failed"
}

// Enqueue pushes a thumbnail job onto the queue with tracing
func (q *RedisQueue) Enqueue(ctx context.Context, job models.ThumbnailJob) error {
	ctx, span := tracer.Start(ctx, "queue.enqueue",
		trace.WithAttributes(
			attribute.String("queue", q.name),
			attribute.String("file_id", job.FileID),
		),
	)
	defer span.End()

	payload, err := json.Marshal(job)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	span.SetAttributes(attribute.Bool("enqueue_success", true))
	return nil
}

// Dequeue blocks for up to a few seconds waiting for a message and moves it
// to the processing list. It returns (nil, nil) when no message arrived
// before the block timeout, letting callers re-check their context.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	raw, err := q.client.BRPopLPush(ctx, q.name, q.processingList(), dequeueBlock).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	var payload models.ThumbnailJob
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Undecodable message: drop it to the failed list rather than
		// poisoning the processing list forever.
		q.client.LRem(ctx, q.processingList(), 1, raw)
		q.client.LPush(ctx, q.failedList(), raw)
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &Job{Payload: payload, raw: raw}, nil
}

// Ack removes a completed message from the processing list with tracing
func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	ctx, span := tracer.Start(ctx, "queue.ack",
		trace.WithAttributes(
			attribute.String("queue", q.name),
			attribute.String("file_id", job.Payload.FileID),
		),
	)
	defer span.End()

	if err := q.client.LRem(ctx, q.processingList(), 1, job.raw).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// Fail moves a message from the processing list to the failed list with
// tracing. Failed messages are kept for external retry policy.
func (q *RedisQueue) Fail(ctx context.Context, job *Job) error {
	ctx, span := tracer.Start(ctx, "queue.fail",
		trace.WithAttributes(
			attribute.String("queue", q.name),
			attribute.String("file_id", job.Payload.FileID),
		),
	)
	defer span.End()

	if err := q.client.LPush(ctx, q.failedList(), job.raw).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record failed job: %w", err)
	}
	if err := q.client.LRem(ctx, q.processingList(), 1, job.raw).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to remove failed job from processing: %w", err)
	}
	return nil
}
