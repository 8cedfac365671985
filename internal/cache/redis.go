package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"example.com/medfleet/services/lorry/config"
	"example.com/medfleet/services/lorry/internal/model"
)

// Client defines the interface for cache operations
type Client interface {
	GetFleetStock(ctx context.Context, lorryID string, asOf time.Time) ([]string, error)
	SetFleetStock(ctx context.Context, lorryID string, asOf time.Time, uids []string) error
	InvalidateFleetStock(ctx context.Context, lorryID string, asOf time.Time) error
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
	Close() error
}

// RedisClient implements Client using Redis
type RedisClient struct {
	client  *redis.Client
	locker  *redislock.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client. A disabled client caches
// nothing and runs locked sections without cross-process serialization.
func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	if !cfg.Enabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		locker:  redislock.New(client),
		enabled: true,
		ttl:     5 * time.Minute,
	}, nil
}

// Prefix keys to avoid collisions
func fleetStockKey(lorryID string, asOf time.Time) string {
	return fmt.Sprintf("fleet_stock:%s:%s", lorryID, model.FormatBusinessDate(asOf))
}

// GetFleetStock retrieves a cached stock reconstruction for a lorry and day
func (c *RedisClient) GetFleetStock(ctx context.Context, lorryID string, asOf time.Time) ([]string, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, fleetStockKey(lorryID, asOf)).Bytes()
	if err != nil {
		return nil, err
	}

	var uids []string
	if err := json.Unmarshal(data, &uids); err != nil {
		return nil, err
	}
	return uids, nil
}

// SetFleetStock caches a stock reconstruction for a lorry and day
func (c *RedisClient) SetFleetStock(ctx context.Context, lorryID string, asOf time.Time, uids []string) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(uids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fleetStockKey(lorryID, asOf), data, c.ttl).Err()
}

// InvalidateFleetStock drops a cached reconstruction after a ledger write
func (c *RedisClient) InvalidateFleetStock(ctx context.Context, lorryID string, asOf time.Time) error {
	if !c.enabled {
		return nil
	}
	return c.client.Del(ctx, fleetStockKey(lorryID, asOf)).Err()
}

// WithLock runs fn while holding a distributed lock on key. When the lock is
// already held elsewhere it returns redislock.ErrNotObtained without running
// fn. A disabled client runs fn directly.
func (c *RedisClient) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	if !c.enabled {
		return fn()
	}

	lock, err := c.locker.Obtain(ctx, key, ttl, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	return fn()
}

// Close closes the underlying Redis connection
func (c *RedisClient) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}
