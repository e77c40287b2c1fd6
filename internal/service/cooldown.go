package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"
)

// Cooldown rate limits an action per key. Acquire reports false while the
// key is still cooling down, Release ends the window early
type Cooldown interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisCooldown struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCooldown(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCooldown {
	return &RedisCooldown{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisCooldown) Acquire(ctx context.Context, key string) (bool, error) {
	return r.rdb.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
}

func (r *RedisCooldown) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}

// MemoryCooldown is the single instance fallback when redis isn't configured
type MemoryCooldown struct {
	mu    sync.Mutex
	cache *ttlcache.Cache
}

func NewMemoryCooldown(ttl time.Duration) *MemoryCooldown {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(true)

	return &MemoryCooldown{cache: c}
}

func (m *MemoryCooldown) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.cache.Get(key); err == nil {
		return false, nil
	}

	if err := m.cache.Set(key, struct{}{}); err != nil {
		return false, err
	}

	return true, nil
}

func (m *MemoryCooldown) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cache.Remove(key); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		return err
	}
	return nil
}

func (m *MemoryCooldown) Close() error {
	return m.cache.Close()
}
