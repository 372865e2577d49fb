// Package cache provides category-partitioned TTL caching for derived
// analysis data. Each category carries its own TTL, fixed when the cache is
// built; callers never pass a TTL. Cached values are re-fetchable derived
// data, so the cache is strictly best-effort: any read problem is a miss.
package cache

import (
	"context"
	"time"
)

// Well-known categories, grouped by volatility band.
const (
	CategoryBalances     = "balances"     // real-time
	CategoryNetworkStats = "networkStats" // real-time
	CategoryTransactions = "transactions" // semi-static
	CategoryLogs         = "logs"         // semi-static
	CategoryAuctions     = "auctions"     // semi-static
	CategoryCommittee    = "committee"    // semi-static
	CategoryContracts    = "contracts"    // static/immutable
)

// DefaultTTLs is the reference TTL table used when no configuration
// overrides it.
func DefaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		CategoryBalances:     30 * time.Second,
		CategoryNetworkStats: 15 * time.Second,
		CategoryTransactions: 2 * time.Minute,
		CategoryLogs:         2 * time.Minute,
		CategoryAuctions:     5 * time.Minute,
		CategoryCommittee:    10 * time.Minute,
		CategoryContracts:    time.Hour,
	}
}

// Cache is a category-scoped key-value store. Get returns (value, true) on a
// hit; a stored nil value is a hit with a nil value, distinct from a miss.
// Implementations must be safe for concurrent use; last write wins per key.
type Cache interface {
	Get(ctx context.Context, category, key string) (any, bool)
	Set(ctx context.Context, category, key string, value any)
	Invalidate(ctx context.Context, category, key string)
	Stats() Stats
}

// Stats reports cache performance counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	Keys      int     `json:"keys"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
