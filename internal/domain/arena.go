package domain

import "time"

// ArenaState is the singleton configuration and aggregate counter record for
// the whole deployment. It is created once by Initialize and mutated only by
// fee updates, authority transfers, and the monotonic counters.
type ArenaState struct {
	Authority     string // identity permitted to create markets and administrate
	Treasury      string // fee recipient
	FeeBps        uint16 // protocol fee in basis points, 0..1000
	TotalVolume   uint64 // lifetime wagered volume, monotonic
	TotalMarkets  uint64 // market sequence counter, monotonic
	InitializedAt time.Time
	UpdatedAt     time.Time
}
