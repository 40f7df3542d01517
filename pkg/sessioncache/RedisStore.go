package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStoreConfig struct {
	Client    *redis.Client
	Namespace string
	IdleTTL   time.Duration
}

/*
RedisStore keeps each session in one Redis hash. The hash TTL slides on every
access so a session's entries disappear together once the session goes idle.
*/
type RedisStore struct {
	client    *redis.Client
	namespace string
	idleTTL   time.Duration
}

func NewRedisStore(config RedisStoreConfig) *RedisStore {
	namespace := config.Namespace
	if namespace == "" {
		namespace = "sessioncache"
	}

	return &RedisStore{
		client:    config.Client,
		namespace: namespace,
		idleTTL:   config.IdleTTL,
	}
}

/*
NewRedisClient parses a redis:// URL and verifies the connection.
*/
func NewRedisClient(ctx context.Context, uri string) (*redis.Client, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, session, key string) ([]byte, bool, error) {
	hashKey := s.hashKey(session)

	value, err := s.client.HGet(ctx, hashKey, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	s.touch(ctx, hashKey)
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, session, key string, value []byte) error {
	hashKey := s.hashKey(session)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, key, value)

		if s.idleTTL > 0 {
			pipe.Expire(ctx, hashKey, s.idleTTL)
		}

		return nil
	})

	return err
}

func (s *RedisStore) Delete(ctx context.Context, session, key string) error {
	return s.client.HDel(ctx, s.hashKey(session), key).Err()
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	return s.client.Del(ctx, s.hashKey(session)).Err()
}

func (s *RedisStore) hashKey(session string) string {
	return s.namespace + ":" + session
}

func (s *RedisStore) touch(ctx context.Context, hashKey string) {
	if s.idleTTL > 0 {
		_ = s.client.Expire(ctx, hashKey, s.idleTTL).Err()
	}
}
