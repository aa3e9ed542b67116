package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// Settlement is the result of a claim.
type Settlement struct {
	Won    bool
	Payout uint64 // credited to the claimant, zero on a loss
	Fee    uint64 // swept to the treasury, zero on a loss
}

// SettlementService settles positions against resolved markets. Winners
// receive a fee-adjusted proportional share of the combined pool; losers
// only have their statistics updated, since the stake was committed to the
// pool at bet time. Either way the position is consumed exactly once.
type SettlementService struct {
	arenas      domain.ArenaStore
	markets     domain.MarketStore
	accounts    domain.AccountStore
	positions   domain.PositionStore
	tx          domain.Transactor
	locks       domain.LockManager
	mover       domain.TokenMover
	leaderboard domain.Leaderboard
	events      *emitter
	logger      *slog.Logger
	now         func() time.Time
}

// NewSettlementService creates a SettlementService. leaderboard may be nil
// when ranking is not configured.
func NewSettlementService(
	arenas domain.ArenaStore,
	markets domain.MarketStore,
	accounts domain.AccountStore,
	positions domain.PositionStore,
	tx domain.Transactor,
	locks domain.LockManager,
	mover domain.TokenMover,
	leaderboard domain.Leaderboard,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		arenas:      arenas,
		markets:     markets,
		accounts:    accounts,
		positions:   positions,
		tx:          tx,
		locks:       locks,
		mover:       mover,
		leaderboard: leaderboard,
		events:      newEmitter(bus, audit, logger),
		logger:      logger.With(slog.String("component", "settlement")),
		now:         time.Now,
	}
}

// computePayout returns the fee and winner payout for one winning position.
//
// fee        = floor(totalPool * feeBps / 10000)
// payout     = floor(amount * (totalPool - fee) / winningPool)
//
// The payout multiplication uses a 128-bit intermediate and divides exactly
// once, at the end; splitting it into two divisions would compound rounding
// error. winningPool is guarded even though a winner's own stake implies it
// is non-zero.
func computePayout(amount, totalUp, totalDown uint64, outcome bool, feeBps uint16) (payout, fee uint64, err error) {
	totalPool, err := domain.CheckedAdd(totalUp, totalDown)
	if err != nil {
		return 0, 0, err
	}

	winningPool := totalDown
	if outcome {
		winningPool = totalUp
	}

	fee, err = domain.MulDiv(totalPool, uint64(feeBps), domain.BpsDenominator)
	if err != nil {
		return 0, 0, err
	}
	poolAfterFee, err := domain.CheckedSub(totalPool, fee)
	if err != nil {
		return 0, 0, err
	}

	payout, err = domain.MulDiv(amount, poolAfterFee, winningPool)
	if err != nil {
		return 0, 0, err
	}
	return payout, fee, nil
}

// Claim settles the caller's position on a resolved market. Claiming is
// permissionless in the sense that any number of users claim independently,
// but each caller may only consume their own position. A repeated claim is
// rejected by the claimed guard and performs no fund movement.
func (s *SettlementService) Claim(ctx context.Context, user string, marketID uint64) (Settlement, error) {
	unlockPos, err := s.locks.Acquire(ctx, positionLockKey(user, marketID), lockTTL)
	if err != nil {
		return Settlement{}, fmt.Errorf("settlement: lock position: %w", err)
	}
	defer unlockPos()
	unlockAccount, err := s.locks.Acquire(ctx, accountLockKey(user), lockTTL)
	if err != nil {
		return Settlement{}, fmt.Errorf("settlement: lock account %s: %w", user, err)
	}
	defer unlockAccount()

	market, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return Settlement{}, fmt.Errorf("settlement: get market %d: %w", marketID, err)
	}
	if !market.Resolved || market.Outcome == nil {
		return Settlement{}, domain.ErrMarketNotResolved
	}

	position, err := s.positions.Get(ctx, user, marketID)
	if err != nil {
		return Settlement{}, domain.ErrInvalidPosition
	}
	if position.Claimed {
		return Settlement{}, domain.ErrAlreadyClaimed
	}

	account, err := s.accounts.Get(ctx, user)
	if err != nil {
		return Settlement{}, fmt.Errorf("settlement: get account %s: %w", user, err)
	}

	// The fee rate is read live from the arena singleton at claim time,
	// not snapshotted at resolution.
	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return Settlement{}, fmt.Errorf("settlement: get arena state: %w", err)
	}

	outcome := *market.Outcome
	now := s.now().UTC()
	position.Claimed = true
	position.ClaimedAt = &now

	var result Settlement
	if position.Won(outcome) {
		payout, fee, err := computePayout(
			position.Amount, market.TotalUpPool, market.TotalDownPool, outcome, arena.FeeBps)
		if err != nil {
			return Settlement{}, fmt.Errorf("settlement: payout for %s on market %d: %w", user, marketID, err)
		}

		balance, err := domain.CheckedAdd(account.Balance, payout)
		if err != nil {
			return Settlement{}, err
		}
		totalWon, err := domain.CheckedAdd(account.TotalWon, payout)
		if err != nil {
			return Settlement{}, err
		}
		account.Balance = balance
		account.TotalWon = totalWon
		account.RecordWin()
		account.UpdatedAt = now

		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if fee > 0 {
				if arena.Treasury == "" {
					return domain.ErrInvalidTreasury
				}
				if err := s.mover.Move(ctx, domain.EscrowVault, arena.Treasury, fee, domain.EscrowVault); err != nil {
					return fmt.Errorf("sweep fee: %w", err)
				}
			}
			if err := s.accounts.Upsert(ctx, account); err != nil {
				return fmt.Errorf("credit winnings: %w", err)
			}
			return s.positions.Update(ctx, position)
		})
		if err != nil {
			return Settlement{}, fmt.Errorf("settlement: claim %s market %d: %w", user, marketID, err)
		}

		result = Settlement{Won: true, Payout: payout, Fee: fee}
		s.events.emit(ctx, domain.EventWinningsClaimed, domain.WinningsClaimedEvent{
			User:     user,
			MarketID: marketID,
			Payout:   payout,
			Fee:      fee,
		})
		s.logger.InfoContext(ctx, "winnings claimed",
			slog.String("user", user),
			slog.Uint64("market_id", marketID),
			slog.String("payout", domain.FormatAmount(payout)),
			slog.String("fee", domain.FormatAmount(fee)),
		)
	} else {
		account.RecordLoss()
		account.UpdatedAt = now

		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.accounts.Upsert(ctx, account); err != nil {
				return fmt.Errorf("record loss: %w", err)
			}
			return s.positions.Update(ctx, position)
		})
		if err != nil {
			return Settlement{}, fmt.Errorf("settlement: claim %s market %d: %w", user, marketID, err)
		}

		s.events.emit(ctx, domain.EventBetLost, domain.BetLostEvent{
			User:       user,
			MarketID:   marketID,
			AmountLost: position.Amount,
		})
		s.logger.InfoContext(ctx, "bet lost",
			slog.String("user", user),
			slog.Uint64("market_id", marketID),
			slog.String("amount_lost", domain.FormatAmount(position.Amount)),
		)
	}

	s.updateLeaderboard(ctx, account)

	return result, nil
}

// updateLeaderboard pushes the post-claim statistics into the rankings.
// Ranking is derived state; failures are logged, not propagated.
func (s *SettlementService) updateLeaderboard(ctx context.Context, account domain.UserAccount) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.RecordWinnings(ctx, account.User, account.TotalWon); err != nil {
		s.logger.WarnContext(ctx, "leaderboard winnings update failed",
			slog.String("user", account.User),
			slog.String("error", err.Error()),
		)
	}
	if err := s.leaderboard.RecordStreak(ctx, account.User, account.CurrentStreak); err != nil {
		s.logger.WarnContext(ctx, "leaderboard streak update failed",
			slog.String("user", account.User),
			slog.String("error", err.Error()),
		)
	}
}
