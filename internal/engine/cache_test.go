package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("captions", "dQw4w9WgXcQ", "en")
	b := CacheKey("captions", "dQw4w9WgXcQ", "en")
	assert.Equal(t, a, b, "same parts must produce the same key")

	c := CacheKey("captions", "dQw4w9WgXcQ", "ru")
	assert.NotEqual(t, a, c, "different parts must produce different keys")
	assert.True(t, len(a) > 3 && a[:3] == "vq:", "key missing namespace prefix: %q", a)
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := CacheKey("test", "roundtrip")

	CacheSetBytes(ctx, key, []byte("payload"), time.Minute)
	got, ok := CacheGetBytes(ctx, key)
	require.True(t, ok, "expected cache hit")
	assert.Equal(t, []byte("payload"), got)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSetBytes(ctx, key, []byte("gone"), -time.Second)
	_, ok := CacheGetBytes(ctx, key)
	assert.False(t, ok, "expired entry must miss")
}

func TestCacheJSON(t *testing.T) {
	type payload struct {
		Title    string  `json:"title"`
		Duration float64 `json:"duration"`
	}
	ctx := context.Background()
	key := CacheKey("test", "json")

	CacheStoreJSON(ctx, key, payload{Title: "Talk", Duration: 421.5}, time.Minute)
	got, ok := CacheLoadJSON[payload](ctx, key)
	require.True(t, ok, "expected cache hit")
	assert.Equal(t, payload{Title: "Talk", Duration: 421.5}, got)
}

func TestCacheJSONTypeMismatchMisses(t *testing.T) {
	ctx := context.Background()
	key := CacheKey("test", "mismatch")

	CacheSetBytes(ctx, key, []byte("not json at all"), time.Minute)
	_, ok := CacheLoadJSON[map[string]string](ctx, key)
	assert.False(t, ok, "unmarshal failure must read as a miss")
}
