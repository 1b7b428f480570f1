package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kayembe/elimu/core"
)

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(conf core.StoreConfig) core.KeyValueStore {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "getting key")
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	// records live until overwritten
	return errors.Wrap(s.client.Set(ctx, key, value, 0).Err(), "setting key")
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.client.Del(ctx, key).Err(), "deleting key")
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
