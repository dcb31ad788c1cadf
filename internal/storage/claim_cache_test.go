package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClaimCache(t *testing.T, ttl time.Duration) (*ClaimCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewClaimCache(NewRedisCacheFromClient(client), ttl), mr
}

func TestClaimCache_MissIsNotClaimed(t *testing.T) {
	cache, _ := setupTestClaimCache(t, time.Hour)

	claimed, err := cache.IsClaimed(testContext(t), "WALLET1")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimCache_MarkClaimed(t *testing.T) {
	cache, mr := setupTestClaimCache(t, time.Hour)
	ctx := testContext(t)

	require.NoError(t, cache.MarkClaimed(ctx, "WALLET1"))

	claimed, err := cache.IsClaimed(ctx, "WALLET1")
	require.NoError(t, err)
	assert.True(t, claimed)

	other, err := cache.IsClaimed(ctx, "WALLET2")
	require.NoError(t, err)
	assert.False(t, other)

	assert.True(t, mr.Exists("free_mint:claimed:WALLET1"))
	assert.Equal(t, time.Hour, mr.TTL("free_mint:claimed:WALLET1"))
}

func TestClaimCache_EntryExpires(t *testing.T) {
	cache, mr := setupTestClaimCache(t, time.Minute)
	ctx := testContext(t)

	require.NoError(t, cache.MarkClaimed(ctx, "WALLET1"))
	mr.FastForward(2 * time.Minute)

	claimed, err := cache.IsClaimed(ctx, "WALLET1")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimCache_RedisDown(t *testing.T) {
	cache, mr := setupTestClaimCache(t, time.Hour)
	mr.Close()

	_, err := cache.IsClaimed(testContext(t), "WALLET1")
	assert.Error(t, err)
}
