package session

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

const DefaultRedisSessionKey = "opsdesk-session"

// RedisStorage mirrors the session record to a single redis key.
type RedisStorage struct {
	redisClient *redis.Client
	key         string
}

func NewRedisStorage(redisClient *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = DefaultRedisSessionKey
	}
	return &RedisStorage{
		redisClient: redisClient,
		key:         key,
	}
}

func (s *RedisStorage) Get(ctx context.Context) ([]byte, error) {
	cmd := s.redisClient.Get(ctx, s.key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(cmd.Val()), nil
}

func (s *RedisStorage) Set(ctx context.Context, value []byte) error {
	return s.redisClient.Set(ctx, s.key, value, 0).Err()
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	return s.redisClient.Del(ctx, s.key).Err()
}
