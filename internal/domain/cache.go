package domain

import (
	"context"
	"time"
)

// LockManager provides per-record exclusive locks. Every operation that
// observes-then-writes a mutable record (account, market, position, arena
// singleton) takes the record's lock for the duration of the operation.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed rate limiting for the permissionless
// operations (resolve, claim).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage represents a single entry from a durable event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for emitted notifications.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	User  string
	Score uint64
}

// Leaderboard ranks users by lifetime winnings and by current streak.
type Leaderboard interface {
	RecordWinnings(ctx context.Context, user string, totalWon uint64) error
	RecordStreak(ctx context.Context, user string, streak uint32) error
	TopByWinnings(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	TopByStreak(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
