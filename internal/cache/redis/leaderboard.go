package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/feedgod/arena/internal/domain"
)

// Sorted-set keys for the two rankings.
const (
	winningsKey = "leaderboard:winnings"
	streakKey   = "leaderboard:streak"
)

// Leaderboard implements domain.Leaderboard on Redis sorted sets. Scores are
// written with the latest lifetime totals after each claim, so ZADD replaces
// rather than increments.
type Leaderboard struct {
	rdb *redis.Client
}

// NewLeaderboard creates a Leaderboard backed by the given Client.
func NewLeaderboard(c *Client) *Leaderboard {
	return &Leaderboard{rdb: c.Underlying()}
}

// RecordWinnings stores the user's lifetime winnings total. ZADD scores are
// float64, so totals above 2^53 base units lose precision; at 6 decimals that
// is ~9 billion whole tokens, and ranking order is all the score is used for.
func (lb *Leaderboard) RecordWinnings(ctx context.Context, user string, totalWon uint64) error {
	err := lb.rdb.ZAdd(ctx, winningsKey, redis.Z{Score: float64(totalWon), Member: user}).Err()
	if err != nil {
		return fmt.Errorf("redis: record winnings %s: %w", user, err)
	}
	return nil
}

// RecordStreak stores the user's current win streak.
func (lb *Leaderboard) RecordStreak(ctx context.Context, user string, streak uint32) error {
	err := lb.rdb.ZAdd(ctx, streakKey, redis.Z{Score: float64(streak), Member: user}).Err()
	if err != nil {
		return fmt.Errorf("redis: record streak %s: %w", user, err)
	}
	return nil
}

// TopByWinnings returns the highest lifetime winners, best first.
func (lb *Leaderboard) TopByWinnings(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return lb.top(ctx, winningsKey, limit)
}

// TopByStreak returns the longest current streaks, best first.
func (lb *Leaderboard) TopByStreak(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return lb.top(ctx, streakKey, limit)
}

func (lb *Leaderboard) top(ctx context.Context, key string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := lb.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: leaderboard top %s: %w", key, err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		user, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			User:  user,
			Score: uint64(row.Score),
		})
	}
	return entries, nil
}

// Compile-time interface check.
var _ domain.Leaderboard = (*Leaderboard)(nil)
