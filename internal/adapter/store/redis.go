package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/joe_shih/spin-wheel/internal/application/identity"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix 是所有鍵的前綴。
const DefaultPrefix = "spinwheel:"

// RedisStore 以 Redis 實現 identity.Store，值不設過期時間。
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ identity.Store = (*RedisStore)(nil)

// NewRedisStore 建立一個新的 RedisStore。prefix 為空時使用 DefaultPrefix。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
