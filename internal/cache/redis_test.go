package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGetHit(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, nil)

	entry := redisEntry{
		Data:      "12345",
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	mock.ExpectGet("midnight:balances:addr1").SetVal(string(raw))

	v, hit := c.Get(ctx, CategoryBalances, "addr1")
	require.True(t, hit)
	assert.Equal(t, "12345", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGetMiss(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, nil)

	mock.ExpectGet("midnight:balances:addr1").RedisNil()

	_, hit := c.Get(ctx, CategoryBalances, "addr1")
	assert.False(t, hit)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, nil)

	mock.ExpectGet("midnight:balances:addr1").SetVal("{not json")

	_, hit := c.Get(ctx, CategoryBalances, "addr1")
	assert.False(t, hit, "a corrupted entry must read as a miss, never an error")
}

func TestRedisExpiredEnvelopeIsMiss(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, nil)

	entry := redisEntry{
		Data:      "stale",
		CachedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	mock.ExpectGet("midnight:balances:addr1").SetVal(string(raw))
	mock.ExpectDel("midnight:balances:addr1").SetVal(1)

	_, hit := c.Get(ctx, CategoryBalances, "addr1")
	assert.False(t, hit, "envelope expiry must be honored even if the server TTL lagged")
}

func TestRedisSet(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, nil)

	mock.Regexp().ExpectSet("midnight:balances:addr1", `.*"data":"12345".*`, 30*time.Second).SetVal("OK")

	c.Set(ctx, CategoryBalances, "addr1", "12345")
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(1), c.Stats().Sets)
}

func TestRedisCategoryKeysAreDisjoint(t *testing.T) {
	client, _ := redismock.NewClientMock()
	c := NewRedis(client, nil)

	assert.NotEqual(t,
		c.fullKey(CategoryBalances, "k"),
		c.fullKey(CategoryContracts, "k"),
	)
}
