package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/redis/go-redis/v9"
)

// RedisHealthStore reads connector health written to Redis by the
// external health monitor. A missing key reports as available.
type RedisHealthStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisHealthStore creates a Redis-backed health store.
func NewRedisHealthStore(client *redis.Client, prefix string, ttl time.Duration) *RedisHealthStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisHealthStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisHealthStore) key(railID string) string {
	return s.prefix + ":health:" + railID
}

// StatusOf implements repository.ConnectorHealth.
func (s *RedisHealthStore) StatusOf(ctx context.Context, railID string) (rail.HealthStatus, error) {
	raw, err := s.client.Get(ctx, s.key(railID)).Result()
	if errors.Is(err, redis.Nil) {
		return rail.HealthAvailable, nil
	}
	if err != nil {
		return rail.HealthUnavailable, fmt.Errorf("health lookup: %w", err)
	}
	switch status := rail.HealthStatus(raw); status {
	case rail.HealthAvailable, rail.HealthDegraded, rail.HealthUnavailable:
		return status, nil
	default:
		return rail.HealthUnavailable, fmt.Errorf("health lookup: unknown status %q", raw)
	}
}

// SetStatus writes a rail's health with the store's TTL. Called by the
// external monitor.
func (s *RedisHealthStore) SetStatus(ctx context.Context, railID string, status rail.HealthStatus) error {
	return s.client.Set(ctx, s.key(railID), string(status), s.ttl).Err()
}

var _ repository.ConnectorHealth = (*RedisHealthStore)(nil)
