package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisStore(rdb *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache delete failed", "error", err)
	}
}

func (s *RedisStore) AddToSet(ctx context.Context, set string, member string) {
	if err := s.rdb.SAdd(ctx, set, member).Err(); err != nil {
		s.logger.Warn("cache set-add failed", "set", set, "error", err)
	}
}

func (s *RedisStore) DeleteSet(ctx context.Context, set string) {
	members, err := s.rdb.SMembers(ctx, set).Result()
	if err != nil {
		s.logger.Warn("cache set-members failed", "set", set, "error", err)
		return
	}
	keys := append(members, set)
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache set-delete failed", "set", set, "error", err)
	}
}
