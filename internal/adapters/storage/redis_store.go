package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tobilawal/localdiscovery/internal/domain/providers"
	redisclient "github.com/tobilawal/localdiscovery/internal/infrastructure/clients/redis"
	apperrors "github.com/tobilawal/localdiscovery/pkg/errors"
)

// RedisStore implements the StateStore interface using Redis. Values are
// written without expiration: retention is the engine's job, not the
// store's.
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a new Redis-backed state store
func NewRedisStore(client *redisclient.Client) providers.StateStore {
	return &RedisStore{
		client: client,
	}
}

// Get retrieves the value stored under key
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.Client().Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", providers.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get from state store", err)
	}
	return result, nil
}

// Set stores value under key, replacing any previous value
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Client().Set(ctx, key, value, 0).Err(); err != nil {
		return apperrors.NewPersistenceError("failed to set in state store", err)
	}
	return nil
}

// Delete removes the value stored under key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, key).Err(); err != nil {
		return apperrors.NewPersistenceError("failed to delete from state store", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
