package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks refresh token jtis that have been exchanged or
// revoked. Entries carry a TTL equal to the remaining token lifetime:
// once the token would have expired anyway, the entry can go.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revocationKeyPrefix = "revoked_jti:"

type RedisRevocationList struct {
	client *redis.Client
}

func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to track.
		return nil
	}

	return l.client.Set(ctx, revocationKeyPrefix+jti, "1", ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKeyPrefix+jti).Result()

	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// MemoryRevocationList backs tests and redis-less deployments.
type MemoryRevocationList struct {
	mu sync.RWMutex
	m  map[string]time.Time // jti -> expiry of the entry
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{m: make(map[string]time.Time)}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	l.m[jti] = time.Now().Add(ttl)
	l.mu.Unlock()

	return nil
}

func (l *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	now := time.Now()

	l.mu.RLock()
	exp, ok := l.m[jti]
	l.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if now.After(exp) {
		l.mu.Lock()
		delete(l.m, jti)
		l.mu.Unlock()
		return false, nil
	}

	return true, nil
}
