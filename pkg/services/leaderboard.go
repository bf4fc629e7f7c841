package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

// leaderboardKey is the Redis sorted set holding holder IDs scored by
// total reputation points.
const leaderboardKey = "reputation:leaderboard"

// LeaderboardCache maintains the reputation leaderboard in a Redis sorted
// set. The cache is best-effort: writes are fire-and-forget from the caller's
// perspective, and reads fall back to PostgreSQL when the cache is disabled
// or empty. A nil client disables the cache.
type LeaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a leaderboard cache. Pass a nil client to
// disable caching (reads return no entries, writes are no-ops).
func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

// Enabled reports whether a Redis client is configured.
func (c *LeaderboardCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Update sets the holder's score to their new point total.
func (c *LeaderboardCache) Update(ctx context.Context, holderID uuid.UUID, totalPoints int64) error {
	if !c.Enabled() {
		return nil
	}
	err := c.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(totalPoints),
		Member: holderID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to update leaderboard cache: %w", err)
	}
	return nil
}

// Top returns the highest-scored holders, best first. Levels are derived
// from the cached scores. Returns nil when the cache is disabled.
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if !c.Enabled() {
		return nil, nil
	}

	zs, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		holderID, err := uuid.Parse(member)
		if err != nil {
			return nil, fmt.Errorf("corrupt leaderboard member %q: %w", member, err)
		}
		total := int64(z.Score)
		entries = append(entries, &models.LeaderboardEntry{
			HolderID:    holderID,
			TotalPoints: total,
			Level:       models.LevelForPoints(total),
			Rank:        i + 1,
		})
	}

	return entries, nil
}
