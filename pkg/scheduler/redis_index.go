package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultDeadlineKey = "zapflow:deadlines"

// RedisIndex keeps deadlines in a sorted set scored by unix timestamp, shared
// by every worker pointing at the same Redis.
type RedisIndex struct {
	client *redis.Client
	key    string
}

// NewRedisIndex connects to Redis and returns a shared deadline index.
func NewRedisIndex(ctx context.Context, redisURL string) (*RedisIndex, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIndex{client: client, key: defaultDeadlineKey}, nil
}

// Add records (or updates) an execution deadline.
func (i *RedisIndex) Add(ctx context.Context, executionID string, at time.Time) error {
	err := i.client.ZAdd(ctx, i.key, redis.Z{
		Score:  float64(at.Unix()),
		Member: executionID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add deadline for %s: %w", executionID, err)
	}

	return nil
}

// Remove drops an execution from the index.
func (i *RedisIndex) Remove(ctx context.Context, executionID string) error {
	err := i.client.ZRem(ctx, i.key, executionID).Err()
	if err != nil {
		return fmt.Errorf("failed to remove deadline for %s: %w", executionID, err)
	}

	return nil
}

// Due returns the executions whose deadline is at or before now.
func (i *RedisIndex) Due(ctx context.Context, now time.Time) ([]string, error) {
	due, err := i.client.ZRangeByScore(ctx, i.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query due deadlines: %w", err)
	}

	return due, nil
}

// Close releases the Redis connection.
func (i *RedisIndex) Close() error {
	return i.client.Close()
}
