package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPollTimeout = 200 * time.Millisecond

// RedisSource pops Host commands from the head of a Redis list. Producers
// append with RPUSH.
type RedisSource struct {
	rdb *redis.Client
	key string
}

// NewRedisClient creates a go-redis client from a URL and verifies it with PING.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisSource(rdb *redis.Client, key string) *RedisSource {
	return &RedisSource{rdb: rdb, key: key}
}

func (s *RedisSource) Poll(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisPollTimeout)
	defer cancel()

	cmd, err := s.rdb.LPop(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to pop command from %s: %w", s.key, err)
	}
	return cmd, nil
}
