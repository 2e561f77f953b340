// Copyright Contributors to the Open Cluster Management project

package ra

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

// URLCache maps device keys (session id, label, id, ip) to their RA device url.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
}

// MemoryCache keeps urls for the lifetime of the owning client.
type MemoryCache struct {
	lock sync.RWMutex
	urls map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{urls: map[string]string{}}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	url, ok := m.urls[key]
	return url, ok
}

func (m *MemoryCache) Set(_ context.Context, key, url string) {
	if key == "" {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.urls[key] = url
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares urls between replicas. Entries expire after ttl.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client redisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "ra-url:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	url, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			klog.Warningf("Unable to read RA url cache for %s: %s", key, err)
		}
		return "", false
	}
	return url, true
}

func (r *RedisCache) Set(ctx context.Context, key, url string) {
	if key == "" {
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, url, r.ttl).Err(); err != nil {
		klog.Warningf("Unable to write RA url cache for %s: %s", key, err)
	}
}
