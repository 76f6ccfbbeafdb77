package quota

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCounter keeps totals in process memory.
type MemoryCounter struct {
	mu     sync.Mutex
	totals map[string]int64
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{totals: make(map[string]int64)}
}

// IncrBy implements Counter.
func (c *MemoryCounter) IncrBy(_ context.Context, day string, n int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals[day] += n
	return c.totals[day], nil
}

// Get implements Counter.
func (c *MemoryCounter) Get(_ context.Context, day string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.totals[day], nil
}

const (
	redisKeyPrefix = "trendmeter:quota:"
	redisKeyTTL    = 48 * time.Hour
)

// RedisCounter shares totals between processes through Redis.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter wraps an existing client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

// IncrBy implements Counter. Keys expire two days after their last write.
func (c *RedisCounter) IncrBy(ctx context.Context, day string, n int64) (int64, error) {
	key := redisKeyPrefix + day

	pipe := c.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, n)
	pipe.Expire(ctx, key, redisKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Get implements Counter.
func (c *RedisCounter) Get(ctx context.Context, day string) (int64, error) {
	n, err := c.client.Get(ctx, redisKeyPrefix+day).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Ping checks the Redis connection.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
