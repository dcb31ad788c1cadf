package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const claimedKeyPrefix = "free_mint:claimed:"

// ClaimCache remembers wallets whose free mint is confirmed on chain.
// Only the claimed outcome is stored: not_claimed can flip at any time,
// claimed never does.
type ClaimCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewClaimCache creates a claim cache with the given entry TTL
func NewClaimCache(redis *RedisCache, ttl time.Duration) *ClaimCache {
	return &ClaimCache{redis: redis, ttl: ttl}
}

// IsClaimed reports whether the wallet is cached as claimed
func (c *ClaimCache) IsClaimed(ctx context.Context, walletAddress string) (bool, error) {
	_, err := c.redis.Client().Get(ctx, claimedKey(walletAddress)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read claim cache: %w", err)
	}
	return true, nil
}

// MarkClaimed caches the wallet as claimed
func (c *ClaimCache) MarkClaimed(ctx context.Context, walletAddress string) error {
	if err := c.redis.Client().Set(ctx, claimedKey(walletAddress), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write claim cache: %w", err)
	}
	return nil
}

func claimedKey(walletAddress string) string {
	return claimedKeyPrefix + walletAddress
}
