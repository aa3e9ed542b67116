package domain

import "time"

// UserAccount is a user's custodial balance and lifetime betting statistics.
// Accounts are created lazily on first deposit and never deleted.
type UserAccount struct {
	User          string
	Balance       uint64 // available, withdrawable units
	TotalWagered  uint64 // cumulative, monotonic
	TotalWon      uint64 // cumulative, monotonic
	Wins          uint32
	Losses        uint32
	CurrentStreak uint32
	BestStreak    uint32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecordWin applies a winning claim to the lifetime statistics.
func (a *UserAccount) RecordWin() {
	a.Wins++
	a.CurrentStreak++
	if a.CurrentStreak > a.BestStreak {
		a.BestStreak = a.CurrentStreak
	}
}

// RecordLoss applies a losing claim to the lifetime statistics.
func (a *UserAccount) RecordLoss() {
	a.Losses++
	a.CurrentStreak = 0
}
