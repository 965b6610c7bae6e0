package leaderboards

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefix = "leaderboard:"

// Storage caches rendered leaderboards as JSON.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Get decodes the cached value into dst and reports whether it was present.
func (s *Storage) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := s.redis.Get(ctx, prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, prefix+key, data, expiration).Err()
}

// Clear drops every cached leaderboard.
func (s *Storage) Clear(ctx context.Context) error {
	iter := s.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.redis.Del(ctx, keys...).Err()
}
