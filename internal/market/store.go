package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// StoreKey is the redis key holding the shared market list.
const StoreKey = "storefront:markets"

// Snapshot is a market list and the time it was read from the source.
type Snapshot struct {
	Markets   []domain.Market `json:"markets"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Store shares market snapshots between storefront replicas.
type Store interface {
	// Load returns (nil, nil) when nothing is stored.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context) error
}

// RedisStore keeps one snapshot under StoreKey, expiring after ttl.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed Store.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Load reads the stored snapshot.
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, StoreKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get markets: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal markets: %w", err)
	}
	return &snap, nil
}

// Save writes snap with the store TTL.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal markets: %w", err)
	}
	if err := s.client.Set(ctx, StoreKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set markets: %w", err)
	}
	return nil
}

// Delete removes the stored snapshot.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, StoreKey).Err(); err != nil {
		return fmt.Errorf("redis del markets: %w", err)
	}
	return nil
}
