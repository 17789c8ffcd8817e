package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shelby2770/testsso/ports"
)

// RedisStore is a Redis implementation of the TokenStore interface, for
// deployments where the session must survive across hosts.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "testsso:sso_token",
	}
}

var _ ports.TokenStore = (*RedisStore)(nil)

// Save stores the token.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the stored token.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", ports.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Clear removes the stored token.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
