package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration for the guard
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSettlementGuard implements SettlementGuard using Redis SETNX.
// Keys are claimed atomically, so concurrent settlements of the same bill
// across process instances serialize on the first writer.
type RedisSettlementGuard struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSettlementGuard creates a Redis-backed settlement guard and
// verifies connectivity with a ping.
func NewRedisSettlementGuard(cfg RedisConfig) (*RedisSettlementGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSettlementGuard{
		client:    client,
		keyPrefix: "settlement:guard:",
	}, nil
}

// NewRedisSettlementGuardWithClient creates a guard using an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisSettlementGuardWithClient(client *redis.Client, keyPrefix string) *RedisSettlementGuard {
	if keyPrefix == "" {
		keyPrefix = "settlement:guard:"
	}
	return &RedisSettlementGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire claims the settlement key via SETNX.
// Returns true if the key was newly claimed, false if another settlement
// holds it. The TTL bounds how long a crashed attempt can keep the key.
func (g *RedisSettlementGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := g.keyPrefix + key

	claimed, err := g.client.SetNX(ctx, fullKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim settlement key: %w", err)
	}

	return claimed, nil
}

// Release frees the settlement key once the attempt finished.
func (g *RedisSettlementGuard) Release(ctx context.Context, key string) error {
	fullKey := g.keyPrefix + key

	if err := g.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("failed to release settlement key: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (g *RedisSettlementGuard) Close() error {
	return g.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (g *RedisSettlementGuard) GetClient() *redis.Client {
	return g.client
}

// Ensure RedisSettlementGuard implements SettlementGuard
var _ shared.SettlementGuard = (*RedisSettlementGuard)(nil)
