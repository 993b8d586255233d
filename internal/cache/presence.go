package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PresenceStore persists per-user chat visibility so the "hide my online
// status" preference survives hub restarts and is shared across instances.
type PresenceStore interface {
	SetHidden(ctx context.Context, userID string, hidden bool) error
	IsHidden(ctx context.Context, userID string) (bool, error)
}

const hiddenKeyPrefix = "chat:hidden:"

type redisPresence struct {
	client redis.UniversalClient
}

// NewRedisPresence builds a redis-backed presence store
func NewRedisPresence(addr, password string) PresenceStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &redisPresence{client: rdb}
}

func (p *redisPresence) SetHidden(ctx context.Context, userID string, hidden bool) error {
	key := hiddenKeyPrefix + userID
	if !hidden {
		return p.client.Del(ctx, key).Err()
	}
	return p.client.Set(ctx, key, "1", 0).Err()
}

func (p *redisPresence) IsHidden(ctx context.Context, userID string) (bool, error) {
	n, err := p.client.Exists(ctx, hiddenKeyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// memoryPresence keeps visibility in process memory. Used when no redis
// address is configured, and by tests.
type memoryPresence struct {
	mu     sync.Mutex
	hidden map[string]bool
}

func NewMemoryPresence() PresenceStore {
	return &memoryPresence{hidden: make(map[string]bool)}
}

func (p *memoryPresence) SetHidden(_ context.Context, userID string, hidden bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !hidden {
		delete(p.hidden, userID)
		return nil
	}
	p.hidden[userID] = true
	return nil
}

func (p *memoryPresence) IsHidden(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hidden[userID], nil
}
