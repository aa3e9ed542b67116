package domain

import "math/big"

// Event names published on the signal bus for every state-changing
// operation. Consumers (WebSocket hub, notifier, archiver) filter on these.
const (
	EventInitialized          = "initialized"
	EventDeposited            = "deposited"
	EventWithdrawn            = "withdrawn"
	EventMarketCreated        = "market_created"
	EventBetPlaced            = "bet_placed"
	EventMarketResolved       = "market_resolved"
	EventWinningsClaimed      = "winnings_claimed"
	EventBetLost              = "bet_lost"
	EventFeeUpdated           = "fee_updated"
	EventAuthorityTransferred = "authority_transferred"
)

// EventChannel is the pub/sub channel all arena events are published on.
const EventChannel = "arena:events"

// EventStream is the durable stream mirroring EventChannel.
const EventStream = "stream:arena:events"

// Envelope wraps every published event with its name so mixed-channel
// consumers can dispatch without guessing at payload shapes.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// InitializedEvent marks the one-time arena deployment.
type InitializedEvent struct {
	Authority string `json:"authority"`
	Treasury  string `json:"treasury"`
	FeeBps    uint16 `json:"fee_bps"`
}

// DepositedEvent is emitted after a successful deposit.
type DepositedEvent struct {
	User       string `json:"user"`
	Amount     uint64 `json:"amount"`
	NewBalance uint64 `json:"new_balance"`
}

// WithdrawnEvent is emitted after a successful withdrawal.
type WithdrawnEvent struct {
	User       string `json:"user"`
	Amount     uint64 `json:"amount"`
	NewBalance uint64 `json:"new_balance"`
}

// MarketCreatedEvent is emitted when the authority opens a new market.
type MarketCreatedEvent struct {
	MarketID       uint64   `json:"market_id"`
	OracleFeed     string   `json:"oracle_feed"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	StartValue     *big.Int `json:"start_value"`
	ResolutionTime int64    `json:"resolution_time"`
}

// BetPlacedEvent is emitted after a bet is accepted, carrying the resulting
// pool totals.
type BetPlacedEvent struct {
	User          string `json:"user"`
	MarketID      uint64 `json:"market_id"`
	Prediction    bool   `json:"prediction"`
	Amount        uint64 `json:"amount"`
	TotalUpPool   uint64 `json:"total_up_pool"`
	TotalDownPool uint64 `json:"total_down_pool"`
}

// MarketResolvedEvent is emitted on the single Open -> Resolved transition.
type MarketResolvedEvent struct {
	MarketID   uint64   `json:"market_id"`
	StartValue *big.Int `json:"start_value"`
	EndValue   *big.Int `json:"end_value"`
	Outcome    bool     `json:"outcome"`
	TotalPool  uint64   `json:"total_pool"`
}

// WinningsClaimedEvent is emitted when a winning position is settled.
type WinningsClaimedEvent struct {
	User     string `json:"user"`
	MarketID uint64 `json:"market_id"`
	Payout   uint64 `json:"payout"`
	Fee      uint64 `json:"fee"`
}

// BetLostEvent is emitted when a losing position is settled.
type BetLostEvent struct {
	User       string `json:"user"`
	MarketID   uint64 `json:"market_id"`
	AmountLost uint64 `json:"amount_lost"`
}

// FeeUpdatedEvent records a protocol fee change.
type FeeUpdatedEvent struct {
	OldFeeBps uint16 `json:"old_fee_bps"`
	NewFeeBps uint16 `json:"new_fee_bps"`
}

// AuthorityTransferredEvent records an administrative handover.
type AuthorityTransferredEvent struct {
	OldAuthority string `json:"old_authority"`
	NewAuthority string `json:"new_authority"`
}
