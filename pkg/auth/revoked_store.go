package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokedStore tracks revoked token IDs until they expire on their own.
type RevokedStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevokedStore is the in-process fallback used when Redis is not
// available.
type MemoryRevokedStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevokedStore constructs an empty in-memory store.
func NewMemoryRevokedStore() *MemoryRevokedStore {
	return &MemoryRevokedStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryRevokedStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryRevokedStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

const redisKeyPrefix = "autoguard:revoked:"

// RedisRevokedStore persists revocations in Redis so they survive restarts
// and are shared across instances.
type RedisRevokedStore struct {
	client *redis.Client
}

// NewRedisRevokedStore wraps an existing Redis client.
func NewRedisRevokedStore(client *redis.Client) *RedisRevokedStore {
	return &RedisRevokedStore{client: client}
}

func (s *RedisRevokedStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+tokenID, "1", ttl).Err()
}

func (s *RedisRevokedStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
