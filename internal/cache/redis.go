package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// redisEntry is the serialized envelope stored per key. ExpiresAt duplicates
// the server-side TTL so a clock-skewed or misconfigured server still never
// serves stale data past the category TTL.
type redisEntry struct {
	Data      any       `json:"data"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redis is a Cache backed by a shared Redis instance, for deployments that
// want derived results visible across processes. Values must be
// JSON-marshalable; a round trip returns generic JSON types, not the
// original Go types. Every Redis or decode error is a miss, never an error
// surfaced to the caller.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttls      map[string]time.Duration
	minTTL    time.Duration

	hits   int64
	misses int64
	sets   int64
}

// NewRedis builds a Redis-backed cache over the given TTL table. A nil or
// empty table uses DefaultTTLs.
func NewRedis(client *redis.Client, ttls map[string]time.Duration) *Redis {
	if len(ttls) == 0 {
		ttls = DefaultTTLs()
	}
	min := time.Duration(0)
	for _, ttl := range ttls {
		if min == 0 || ttl < min {
			min = ttl
		}
	}
	return &Redis{
		client:    client,
		keyPrefix: "midnight:",
		ttls:      ttls,
		minTTL:    min,
	}
}

func (r *Redis) ttlFor(category string) time.Duration {
	if ttl, ok := r.ttls[category]; ok {
		return ttl
	}
	return r.minTTL
}

func (r *Redis) fullKey(category, key string) string {
	return r.keyPrefix + category + ":" + key
}

// Get returns the cached value for (category, key).
func (r *Redis) Get(ctx context.Context, category, key string) (any, bool) {
	raw, err := r.client.Get(ctx, r.fullKey(category, key)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("category", category).Msg("cache read failed, treating as miss")
		}
		atomic.AddInt64(&r.misses, 1)
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.Debug().Err(err).Str("category", category).Msg("corrupt cache entry, treating as miss")
		atomic.AddInt64(&r.misses, 1)
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		r.client.Del(ctx, r.fullKey(category, key))
		atomic.AddInt64(&r.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&r.hits, 1)
	return entry.Data, true
}

// Set stores value under (category, key) with the category's fixed TTL.
// Write failures are logged and dropped; the cache is best-effort.
func (r *Redis) Set(ctx context.Context, category, key string, value any) {
	now := time.Now()
	entry := redisEntry{
		Data:      value,
		CachedAt:  now,
		ExpiresAt: now.Add(r.ttlFor(category)),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Debug().Err(err).Str("category", category).Msg("unmarshalable cache value, skipping write")
		return
	}
	if err := r.client.Set(ctx, r.fullKey(category, key), string(raw), r.ttlFor(category)).Err(); err != nil {
		log.Debug().Err(err).Str("category", category).Msg("cache write failed")
		return
	}
	atomic.AddInt64(&r.sets, 1)
}

// Invalidate drops (category, key) if present.
func (r *Redis) Invalidate(ctx context.Context, category, key string) {
	r.client.Del(ctx, r.fullKey(category, key))
}

// Stats returns a snapshot of the cache counters for this process.
func (r *Redis) Stats() Stats {
	hits := atomic.LoadInt64(&r.hits)
	misses := atomic.LoadInt64(&r.misses)
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    atomic.LoadInt64(&r.sets),
		HitRate: hitRate(hits, misses),
	}
}
