package domain

import "time"

// Position is a user's single wager against one market. A user holds at most
// one Position per market; the (user, market) pair is the primary key and a
// second bet is rejected as a duplicate. Claimed flips false -> true exactly
// once.
type Position struct {
	User       string
	MarketID   uint64
	Prediction bool // true = up, false = down
	Amount     uint64
	Claimed    bool
	PlacedAt   time.Time
	ClaimedAt  *time.Time
}

// Won reports whether the position is on the winning side of the given
// outcome.
func (p *Position) Won(outcome bool) bool {
	return p.Prediction == outcome
}
