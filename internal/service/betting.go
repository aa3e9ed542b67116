package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// BettingService accepts wagers against open markets. A bet debits the
// user's custodial balance, grows the chosen side's pool and the global
// volume counter, and creates the user's Position — all in one atomic step.
// The stake is committed irrevocably; there is no bet cancellation.
type BettingService struct {
	arenas    domain.ArenaStore
	markets   domain.MarketStore
	accounts  domain.AccountStore
	positions domain.PositionStore
	tx        domain.Transactor
	locks     domain.LockManager
	events    *emitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewBettingService creates a BettingService with all required dependencies.
func NewBettingService(
	arenas domain.ArenaStore,
	markets domain.MarketStore,
	accounts domain.AccountStore,
	positions domain.PositionStore,
	tx domain.Transactor,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *BettingService {
	return &BettingService{
		arenas:    arenas,
		markets:   markets,
		accounts:  accounts,
		positions: positions,
		tx:        tx,
		locks:     locks,
		events:    newEmitter(bus, audit, logger),
		logger:    logger.With(slog.String("component", "betting")),
		now:       time.Now,
	}
}

// PlaceBet wagers amount on the given side of a market. Betting closes
// exactly at the market's resolution time.
func (s *BettingService) PlaceBet(
	ctx context.Context,
	user string,
	marketID uint64,
	prediction bool,
	amount uint64,
) (domain.Position, error) {
	if amount < domain.MinBet {
		return domain.Position{}, domain.ErrBetTooSmall
	}
	if amount > domain.MaxBet {
		return domain.Position{}, domain.ErrBetTooLarge
	}

	// Lock order is fixed (arena, market, account) so concurrent bets on
	// the same records cannot deadlock.
	unlockArena, err := s.locks.Acquire(ctx, arenaLockKey(), lockTTL)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: lock arena: %w", err)
	}
	defer unlockArena()
	unlockMarket, err := s.locks.Acquire(ctx, marketLockKey(marketID), lockTTL)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: lock market %d: %w", marketID, err)
	}
	defer unlockMarket()
	unlockAccount, err := s.locks.Acquire(ctx, accountLockKey(user), lockTTL)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: lock account %s: %w", user, err)
	}
	defer unlockAccount()

	market, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: get market %d: %w", marketID, err)
	}
	if market.Resolved {
		return domain.Position{}, domain.ErrMarketAlreadyResolved
	}
	now := s.now().UTC()
	if !now.Before(market.ResolutionTime) {
		return domain.Position{}, domain.ErrBettingClosed
	}

	account, err := s.accounts.Get(ctx, user)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: get account %s: %w", user, err)
	}
	if account.Balance < amount {
		return domain.Position{}, domain.ErrInsufficientBalance
	}

	// One position per (user, market); a repeat bet is a conflict, not a
	// top-up.
	if _, err := s.positions.Get(ctx, user, marketID); err == nil {
		return domain.Position{}, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Position{}, fmt.Errorf("betting: check position: %w", err)
	}

	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: get arena state: %w", err)
	}

	// All arithmetic is validated before any store mutation.
	balance, err := domain.CheckedSub(account.Balance, amount)
	if err != nil {
		return domain.Position{}, err
	}
	wagered, err := domain.CheckedAdd(account.TotalWagered, amount)
	if err != nil {
		return domain.Position{}, err
	}
	upPool, downPool := market.TotalUpPool, market.TotalDownPool
	if prediction {
		if upPool, err = domain.CheckedAdd(upPool, amount); err != nil {
			return domain.Position{}, err
		}
	} else {
		if downPool, err = domain.CheckedAdd(downPool, amount); err != nil {
			return domain.Position{}, err
		}
	}
	volume, err := domain.CheckedAdd(arena.TotalVolume, amount)
	if err != nil {
		return domain.Position{}, err
	}

	account.Balance = balance
	account.TotalWagered = wagered
	account.UpdatedAt = now
	market.TotalUpPool = upPool
	market.TotalDownPool = downPool
	arena.TotalVolume = volume
	arena.UpdatedAt = now

	position := domain.Position{
		User:       user,
		MarketID:   marketID,
		Prediction: prediction,
		Amount:     amount,
		PlacedAt:   now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Upsert(ctx, account); err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		if err := s.markets.Update(ctx, market); err != nil {
			return fmt.Errorf("update pools: %w", err)
		}
		if err := s.arenas.Update(ctx, arena); err != nil {
			return fmt.Errorf("update volume: %w", err)
		}
		return s.positions.Create(ctx, position)
	})
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: place bet: %w", err)
	}

	s.events.emit(ctx, domain.EventBetPlaced, domain.BetPlacedEvent{
		User:          user,
		MarketID:      marketID,
		Prediction:    prediction,
		Amount:        amount,
		TotalUpPool:   market.TotalUpPool,
		TotalDownPool: market.TotalDownPool,
	})
	s.logger.InfoContext(ctx, "bet placed",
		slog.String("user", user),
		slog.Uint64("market_id", marketID),
		slog.Bool("prediction_up", prediction),
		slog.String("amount", domain.FormatAmount(amount)),
	)

	return position, nil
}

// GetPosition returns a user's position on a market.
func (s *BettingService) GetPosition(ctx context.Context, user string, marketID uint64) (domain.Position, error) {
	pos, err := s.positions.Get(ctx, user, marketID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("betting: get position: %w", err)
	}
	return pos, nil
}

// ListPositions returns a user's positions, newest first.
func (s *BettingService) ListPositions(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Position, error) {
	positions, err := s.positions.ListByUser(ctx, user, opts)
	if err != nil {
		return nil, fmt.Errorf("betting: list positions for %s: %w", user, err)
	}
	return positions, nil
}
