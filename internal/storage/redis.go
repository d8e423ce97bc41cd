package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/opsdash/forget-me-not/internal/service/exclusions"
)

// RedisStore keeps the excluded-module set in a Redis SET under the
// configuration key. The replace in Set runs DEL+SADD inside a transaction
// pipeline so readers never observe a half-written set.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the persisted excluded module names.
func (s *RedisStore) Get(ctx context.Context) ([]string, error) {
	modules, err := s.client.SMembers(ctx, exclusions.ConfigKey).Result()
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// Set replaces the persisted set.
func (s *RedisStore) Set(ctx context.Context, modules []string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, exclusions.ConfigKey)
		if len(modules) > 0 {
			members := make([]interface{}, len(modules))
			for i, m := range modules {
				members[i] = m
			}
			pipe.SAdd(ctx, exclusions.ConfigKey, members...)
		}
		return nil
	})
	return err
}

// Delete removes the key entirely. Deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, exclusions.ConfigKey).Err()
}
