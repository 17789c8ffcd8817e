package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChallengeStore keeps pending challenges in Redis so dev backends can
// restart without stranding in-flight ceremonies. Each (kind, username) pair
// maps to one hash keyed by challenge ID; the hash expires with the
// challenge TTL, so pruning is a no-op here.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisChallengeStore creates a Redis challenge store.
func NewRedisChallengeStore(client *redis.Client, ttl time.Duration) *RedisChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "testsso:challenges:",
		ttl:    ttl,
	}
}

var _ ChallengeStore = (*RedisChallengeStore)(nil)

func (s *RedisChallengeStore) key(kind ChallengeKind, username string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, kind, username)
}

// PutChallenge implements ChallengeStore.
func (s *RedisChallengeStore) PutChallenge(ctx context.Context, challenge PendingChallenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	key := s.key(challenge.Kind, challenge.Username)
	if err := s.client.HSet(ctx, key, challenge.ID, payload).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set challenge expiry: %w", err)
	}
	return nil
}

// ListChallenges implements ChallengeStore.
func (s *RedisChallengeStore) ListChallenges(ctx context.Context, kind ChallengeKind, username string) ([]PendingChallenge, error) {
	entries, err := s.client.HGetAll(ctx, s.key(kind, username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	challenges := make([]PendingChallenge, 0, len(entries))
	for _, payload := range entries {
		var challenge PendingChallenge
		if err := json.Unmarshal([]byte(payload), &challenge); err != nil {
			return nil, fmt.Errorf("failed to decode challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}
	return challenges, nil
}

// DeleteChallenges implements ChallengeStore.
func (s *RedisChallengeStore) DeleteChallenges(ctx context.Context, kind ChallengeKind, username string) (int, error) {
	key := s.key(kind, username)

	count, err := s.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count challenges: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete challenges: %w", err)
	}
	return int(count), nil
}

// PruneChallenges implements ChallengeStore. Redis evicts expired hashes on
// its own.
func (s *RedisChallengeStore) PruneChallenges(ctx context.Context, cutoff time.Time) error {
	return nil
}
