package domain

import (
	"math/big"
	"time"
)

// Field limits for market metadata.
const (
	MaxDescriptionLen = 200
	MaxCategoryLen    = 50
)

// MarketStatus is a coarse lifecycle label used for listings. A market is
// open from creation until it is resolved; there is no cancelled state.
type MarketStatus string

const (
	MarketStatusOpen     MarketStatus = "open"
	MarketStatusResolved MarketStatus = "resolved"
)

// Market is a single binary prediction market over an oracle measurement.
// After creation only the pool totals grow, and resolution freezes the
// record entirely.
type Market struct {
	ID             uint64
	OracleFeed     string
	Description    string
	Category       string
	StartValue     *big.Int // oracle snapshot at creation
	EndValue       *big.Int // oracle snapshot at resolution, nil until then
	ResolutionTime time.Time
	TotalUpPool    uint64
	TotalDownPool  uint64
	Resolved       bool
	Outcome        *bool // nil until resolved; true = up, false = down
	CreatedAt      time.Time
}

// Status reports the coarse lifecycle label.
func (m *Market) Status() MarketStatus {
	if m.Resolved {
		return MarketStatusResolved
	}
	return MarketStatusOpen
}

// BettingOpenAt reports whether bets are accepted at the given instant.
// Betting closes exactly at the resolution time.
func (m *Market) BettingOpenAt(now time.Time) bool {
	return !m.Resolved && now.Before(m.ResolutionTime)
}

// TotalPool returns the combined staked value on both sides, overflow-checked.
func (m *Market) TotalPool() (uint64, error) {
	return CheckedAdd(m.TotalUpPool, m.TotalDownPool)
}
