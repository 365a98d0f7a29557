package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/ports"
)

var _ ports.LegCache = (*RedisLegCache)(nil)

// RedisLegCache shares street legs between planner processes. Entries expire after TTL.
type RedisLegCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLegCache(client *redis.Client, ttl time.Duration) *RedisLegCache {
	return &RedisLegCache{client: client, ttl: ttl}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

type redisLeg struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// redisKey hashes the leg key into a bounded-length namespaced key.
func redisKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("leg:%x", hash[:12])
}

func (c *RedisLegCache) Get(ctx context.Context, key string) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.redis.Get")(&err)

	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: %w", err)
	}

	var leg redisLeg
	if err := json.Unmarshal(data, &leg); err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: decode %q: %w", key, err)
	}
	return ports.RouteResult{DistanceMeters: leg.DistanceMeters, DurationSeconds: leg.DurationSeconds}, true, nil
}

func (c *RedisLegCache) Put(ctx context.Context, key string, r ports.RouteResult) error {
	data, err := json.Marshal(redisLeg{DistanceMeters: r.DistanceMeters, DurationSeconds: r.DurationSeconds})
	if err != nil {
		return fmt.Errorf("insert leg cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert leg cache key=%q: %w", key, err)
	}
	return nil
}
