package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/notify"
)

// MarketService owns the market lifecycle: authority-gated creation with an
// oracle snapshot, and the single, permissionless, irreversible
// Open -> Resolved transition.
type MarketService struct {
	arenas   domain.ArenaStore
	markets  domain.MarketStore
	oracle   domain.PriceOracle
	tx       domain.Transactor
	locks    domain.LockManager
	events   *emitter
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewMarketService creates a MarketService. notifier may be nil when no
// operator alert channels are configured.
func NewMarketService(
	arenas domain.ArenaStore,
	markets domain.MarketStore,
	oracle domain.PriceOracle,
	tx domain.Transactor,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		arenas:   arenas,
		markets:  markets,
		oracle:   oracle,
		tx:       tx,
		locks:    locks,
		events:   newEmitter(bus, audit, logger),
		notifier: notifier,
		logger:   logger.With(slog.String("component", "market")),
		now:      time.Now,
	}
}

// Create opens a new market. Only the arena authority may call it. The
// oracle is read immediately and the observed value frozen as the market's
// start value; the market id is drawn from the arena's monotonic sequence.
func (s *MarketService) Create(
	ctx context.Context,
	caller string,
	oracleFeed string,
	description string,
	category string,
	resolutionTime time.Time,
) (domain.Market, error) {
	if len(description) > domain.MaxDescriptionLen {
		return domain.Market{}, domain.ErrDescriptionTooLong
	}
	if len(category) > domain.MaxCategoryLen {
		return domain.Market{}, domain.ErrCategoryTooLong
	}
	if oracleFeed == "" {
		return domain.Market{}, domain.ErrInvalidOracle
	}
	now := s.now().UTC()
	if !resolutionTime.After(now) {
		return domain.Market{}, domain.ErrInvalidResolutionTime
	}

	// The arena sequence counter is observe-then-write state.
	unlock, err := s.locks.Acquire(ctx, arenaLockKey(), lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: lock arena: %w", err)
	}
	defer unlock()

	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: get arena state: %w", err)
	}
	if caller != arena.Authority {
		return domain.Market{}, domain.ErrUnauthorized
	}

	startValue, err := s.oracle.Read(ctx, oracleFeed)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: oracle read %s: %w", oracleFeed, err)
	}

	market := domain.Market{
		OracleFeed:     oracleFeed,
		Description:    description,
		Category:       category,
		StartValue:     startValue,
		ResolutionTime: resolutionTime.UTC(),
		CreatedAt:      now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		market.ID = arena.TotalMarkets
		next, err := domain.CheckedAdd(arena.TotalMarkets, 1)
		if err != nil {
			return err
		}
		arena.TotalMarkets = next
		arena.UpdatedAt = now

		if err := s.arenas.Update(ctx, arena); err != nil {
			return fmt.Errorf("update arena state: %w", err)
		}
		return s.markets.Create(ctx, market)
	})
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: create: %w", err)
	}

	s.events.emit(ctx, domain.EventMarketCreated, domain.MarketCreatedEvent{
		MarketID:       market.ID,
		OracleFeed:     market.OracleFeed,
		Description:    market.Description,
		Category:       market.Category,
		StartValue:     market.StartValue,
		ResolutionTime: market.ResolutionTime.Unix(),
	})
	if s.notifier != nil {
		title := fmt.Sprintf("Market #%d created", market.ID)
		msg := fmt.Sprintf("%s\nCategory: %s\nResolves: %s",
			market.Description, market.Category,
			market.ResolutionTime.Format(time.RFC3339))
		if err := s.notifier.Notify(ctx, domain.EventMarketCreated, title, msg); err != nil {
			s.logger.WarnContext(ctx, "market created notification failed",
				slog.String("error", err.Error()))
		}
	}
	s.logger.InfoContext(ctx, "market created",
		slog.Uint64("market_id", market.ID),
		slog.String("oracle_feed", market.OracleFeed),
		slog.String("category", market.Category),
		slog.Time("resolution_time", market.ResolutionTime),
	)

	return market, nil
}

// Resolve performs the single terminal transition of a market. Anyone may
// call it once the resolution time has passed; a second call is rejected,
// never re-applied. The outcome is up exactly when the oracle's current
// value is strictly greater than the start value, so a tie resolves down.
func (s *MarketService) Resolve(ctx context.Context, marketID uint64) (domain.Market, error) {
	unlock, err := s.locks.Acquire(ctx, marketLockKey(marketID), lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: lock market %d: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: get market %d: %w", marketID, err)
	}
	if market.Resolved {
		return domain.Market{}, domain.ErrMarketAlreadyResolved
	}
	if s.now().UTC().Before(market.ResolutionTime) {
		return domain.Market{}, domain.ErrResolutionTimeNotReached
	}

	endValue, err := s.oracle.Read(ctx, market.OracleFeed)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: oracle read %s: %w", market.OracleFeed, err)
	}

	outcome := endValue.Cmp(market.StartValue) > 0
	market.Resolved = true
	market.Outcome = &outcome
	market.EndValue = endValue

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.markets.Update(ctx, market)
	})
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: resolve %d: %w", marketID, err)
	}

	totalPool := market.TotalUpPool + market.TotalDownPool
	s.events.emit(ctx, domain.EventMarketResolved, domain.MarketResolvedEvent{
		MarketID:   market.ID,
		StartValue: market.StartValue,
		EndValue:   market.EndValue,
		Outcome:    outcome,
		TotalPool:  totalPool,
	})
	if s.notifier != nil {
		direction := "DOWN"
		if outcome {
			direction = "UP"
		}
		title := fmt.Sprintf("Market #%d resolved %s", market.ID, direction)
		msg := fmt.Sprintf("%s\nStart: %s  End: %s\nTotal pool: %s",
			market.Description, market.StartValue, market.EndValue,
			domain.FormatAmount(totalPool))
		if err := s.notifier.Notify(ctx, domain.EventMarketResolved, title, msg); err != nil {
			s.logger.WarnContext(ctx, "market resolved notification failed",
				slog.String("error", err.Error()))
		}
	}
	s.logger.InfoContext(ctx, "market resolved",
		slog.Uint64("market_id", market.ID),
		slog.Bool("outcome_up", outcome),
		slog.String("total_pool", domain.FormatAmount(totalPool)),
	)

	return market, nil
}

// Get returns a single market.
func (s *MarketService) Get(ctx context.Context, marketID uint64) (domain.Market, error) {
	market, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: get %d: %w", marketID, err)
	}
	return market, nil
}

// List returns markets filtered by status and category.
func (s *MarketService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market: list: %w", err)
	}
	return markets, nil
}
