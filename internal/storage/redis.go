package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/maverick-lab/filebox/internal/common"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// sessionKeyPrefix namespaces session keys; an implementation detail, not
// part of the HTTP contract.
const sessionKeyPrefix = "auth_"

// SessionStore wraps Redis session operations with tracing. Sessions are
// plain token -> userID mappings with a fixed (non-sliding) TTL.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore initializes a new Redis-backed session store
func NewSessionStore(addr, password string, db int) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test the connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &SessionStore{client: client}, nil
}

// NewSessionStoreFromClient wraps an existing Redis client. The queue and the
// session store share one connection pool in both binaries.
func NewSessionStoreFromClient(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Close closes the Redis connection
func (ss *SessionStore) Close() error {
	return ss.client.Close()
}

// Ping reports whether the Redis connection is alive
func (ss *SessionStore) Ping(ctx context.Context) error {
	return ss.client.Ping(ctx).Err()
}

// Save stores token -> userID with the given TTL, with tracing
func (ss *SessionStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "redis.save_session",
		trace.WithAttributes(
			attribute.Int64("ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	err := ss.client.Set(ctx, sessionKeyPrefix+token, userID, ttl).Err()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	span.SetAttributes(attribute.Bool("session_saved", true))
	return nil
}

// Get resolves token -> userID with tracing. A missing or expired session
// returns common.ErrNotFound; the TTL is never extended.
func (ss *SessionStore) Get(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "redis.get_session")
	defer span.End()

	userID, err := ss.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		span.SetAttributes(attribute.Bool("session_found", false))
		return "", common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	span.SetAttributes(attribute.Bool("session_found", true))
	return userID, nil
}

// Delete removes a session with tracing
func (ss *SessionStore) Delete(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "redis.delete_session")
	defer span.End()

	err := ss.client.Del(ctx, sessionKeyPrefix+token).Err()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	span.SetAttributes(attribute.Bool("session_deleted", true))
	return nil
}
