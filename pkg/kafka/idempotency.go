package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which event IDs have been handled.
// Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// RedisIdempotencyStore shares seen IDs across storefront replicas.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a store whose keys are prefix+eventID.
func NewRedisIdempotencyStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

// Contains reports whether eventID has a live key.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return n > 0, nil
}

// Add records eventID with the store's ttl.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.prefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("record event %s: %w", eventID, err)
	}
	return nil
}

// IdempotentHandler skips events whose ID the store has already seen.
// A store lookup failure lets the event through.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.ID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.ID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed, processing anyway",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}
		if seen {
			logger.DebugContext(ctx, "skipping duplicate event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.Type),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if err := store.Add(ctx, event.ID); err != nil {
			logger.WarnContext(ctx, "failed to record handled event",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}
