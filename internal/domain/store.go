package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit    int
	Offset   int
	Category string
	Status   MarketStatus
}

// Transactor applies a function atomically: every store mutation performed
// through the ctx it passes to fn either commits as a whole or not at all.
// This is the atomic-application guarantee the settlement operations rely
// on (a claim must flip Claimed and move funds in one step).
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ArenaStore persists the singleton ArenaState record.
type ArenaStore interface {
	// Create inserts the singleton. Returns ErrAlreadyExists when the arena
	// has already been initialized.
	Create(ctx context.Context, state ArenaState) error
	Get(ctx context.Context) (ArenaState, error)
	Update(ctx context.Context, state ArenaState) error
}

// AccountStore persists user custodial accounts.
type AccountStore interface {
	// Upsert inserts the account or replaces its mutable fields.
	Upsert(ctx context.Context, account UserAccount) error
	Get(ctx context.Context, user string) (UserAccount, error)
}

// MarketStore persists markets.
type MarketStore interface {
	Create(ctx context.Context, market Market) error
	Get(ctx context.Context, id uint64) (Market, error)
	Update(ctx context.Context, market Market) error
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	// ListResolvedBefore returns resolved markets whose resolution time is
	// strictly before the cutoff, for archival.
	ListResolvedBefore(ctx context.Context, before time.Time) ([]Market, error)
}

// PositionStore persists wager positions keyed by (user, market).
type PositionStore interface {
	// Create inserts a position. Returns ErrAlreadyExists when the user
	// already holds a position on the market.
	Create(ctx context.Context, pos Position) error
	Get(ctx context.Context, user string, marketID uint64) (Position, error)
	Update(ctx context.Context, pos Position) error
	ListByMarket(ctx context.Context, marketID uint64) ([]Position, error)
	ListByUser(ctx context.Context, user string, opts ListOpts) ([]Position, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
}
