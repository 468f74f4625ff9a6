package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Two-tier cache: in-memory sync.Map (L1) with optional Redis (L2).
// L1 is bounded by CacheMaxEntries and swept periodically; L2 carries
// TTLs natively and survives restarts. Used for caption payloads,
// metadata lookups, and summary results.

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

var (
	memCache    sync.Map
	memCount    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	redisClient *redis.Client
	redisOnce   sync.Once

	cleanupOnce sync.Once
)

// InitCache connects the L2 tier if redisURL is non-empty and starts
// the L1 sweep loop. Safe to call more than once.
func InitCache(redisURL string) {
	redisOnce.Do(func() {
		if redisURL == "" {
			slog.Debug("cache: no redis URL, memory tier only")
			return
		}
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid REDIS_URL", slog.Any("error", err))
			return
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("cache: redis unreachable, memory tier only", slog.Any("error", err))
			return
		}
		redisClient = client
		slog.Info("cache: redis tier connected")
	})
	cleanupOnce.Do(func() {
		interval := cfg.CacheCleanupInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go cleanupLoop(interval)
	})
}

// CacheKey builds a namespaced key from parts. Values are hashed so
// arbitrary text (URLs, questions) never leaks into key space.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "vq:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// CacheGetBytes reads through both tiers. A Redis hit backfills L1.
func CacheGetBytes(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := memCache.Load(key); ok {
		entry := v.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			cacheHits.Add(1)
			return entry.data, true
		}
		memCache.Delete(key)
		memCount.Add(-1)
	}

	if redisClient != nil {
		data, err := redisClient.Get(ctx, key).Bytes()
		if err == nil {
			cacheHits.Add(1)
			storeMem(key, data, time.Minute)
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSetBytes writes through both tiers.
func CacheSetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) {
	storeMem(key, data, ttl)
	if redisClient != nil {
		if err := redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
			slog.Debug("cache: redis set failed", slog.Any("error", err))
		}
	}
}

// CacheLoadJSON fetches and unmarshals a cached value.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	data, ok := CacheGetBytes(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Debug("cache: stale payload", slog.String("key", key), slog.Any("error", err))
		return zero, false
	}
	return v, true
}

// CacheStoreJSON marshals and stores a value.
func CacheStoreJSON[T any](ctx context.Context, key string, v T, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("cache: marshal failed", slog.Any("error", err))
		return
	}
	CacheSetBytes(ctx, key, data, ttl)
}

// CacheStats returns hit and miss counts.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

func storeMem(key string, data []byte, ttl time.Duration) {
	evictIfNeeded()
	if _, loaded := memCache.Swap(key, cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}); !loaded {
		memCount.Add(1)
	}
}

// evictIfNeeded drops expired entries when the L1 tier is full, then
// falls back to dropping arbitrary entries. sync.Map has no ordering,
// so this is best-effort rather than LRU.
func evictIfNeeded() {
	max := int64(cfg.CacheMaxEntries)
	if max <= 0 {
		max = 1000
	}
	if memCount.Load() < max {
		return
	}
	now := time.Now()
	removed := int64(0)
	memCache.Range(func(k, v any) bool {
		if now.After(v.(cacheEntry).expiresAt) {
			memCache.Delete(k)
			removed++
		}
		return true
	})
	if removed == 0 {
		memCache.Range(func(k, v any) bool {
			memCache.Delete(k)
			removed++
			return removed < max/10
		})
	}
	memCount.Add(-removed)
}

func cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		removed := int64(0)
		memCache.Range(func(k, v any) bool {
			if now.After(v.(cacheEntry).expiresAt) {
				memCache.Delete(k)
				removed++
			}
			return true
		})
		if removed > 0 {
			memCount.Add(-removed)
			slog.Debug("cache: swept expired entries", slog.Int64("removed", removed))
		}
	}
}
