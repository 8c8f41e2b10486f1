package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/railpay/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// defaultTTL bounds how long charge results are replayable. Retries of
// one intent happen within minutes; a day is generous.
const defaultTTL = 24 * time.Hour

// RedisStore is a Redis-backed idempotency store shared across
// processes.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl uses the
// default of 24h.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":idem:" + key
}

// Get implements provider.IdempotencyStore.
func (s *RedisStore) Get(ctx context.Context, key string) (*provider.ChargeResult, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency get: %w", err)
	}
	var res provider.ChargeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return &res, nil
}

// Put implements provider.IdempotencyStore.
func (s *RedisStore) Put(ctx context.Context, key string, result *provider.ChargeResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency put: %w", err)
	}
	return nil
}

var _ provider.IdempotencyStore = (*RedisStore)(nil)
