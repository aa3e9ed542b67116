package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// LedgerService manages custodial balances: deposits from user wallets into
// the escrow vault and withdrawals back out. Balances never go negative and
// all arithmetic is overflow-checked.
type LedgerService struct {
	accounts domain.AccountStore
	tx       domain.Transactor
	locks    domain.LockManager
	mover    domain.TokenMover
	events   *emitter
	logger   *slog.Logger
	now      func() time.Time
}

// NewLedgerService creates a LedgerService with all required dependencies.
func NewLedgerService(
	accounts domain.AccountStore,
	tx domain.Transactor,
	locks domain.LockManager,
	mover domain.TokenMover,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		tx:       tx,
		locks:    locks,
		mover:    mover,
		events:   newEmitter(bus, audit, logger),
		logger:   logger.With(slog.String("component", "ledger")),
		now:      time.Now,
	}
}

// Deposit moves amount from the user's wallet into the escrow vault and
// credits the user's custodial balance. The account is created lazily on
// first deposit.
func (s *LedgerService) Deposit(ctx context.Context, user string, amount uint64) (domain.UserAccount, error) {
	if amount == 0 {
		return domain.UserAccount{}, domain.ErrInvalidAmount
	}

	unlock, err := s.locks.Acquire(ctx, accountLockKey(user), lockTTL)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: lock account %s: %w", user, err)
	}
	defer unlock()

	// Custody moves first; the credit below only happens once the tokens
	// are actually in escrow.
	if err := s.mover.Move(ctx, user, domain.EscrowVault, amount, user); err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: deposit transfer: %w", err)
	}

	var account domain.UserAccount
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		account, err = s.accounts.Get(ctx, user)
		if errors.Is(err, domain.ErrNotFound) {
			account = domain.UserAccount{User: user, CreatedAt: s.now().UTC()}
		} else if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		balance, err := domain.CheckedAdd(account.Balance, amount)
		if err != nil {
			return err
		}
		account.Balance = balance
		account.UpdatedAt = s.now().UTC()

		return s.accounts.Upsert(ctx, account)
	})
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: deposit %s: %w", user, err)
	}

	s.events.emit(ctx, domain.EventDeposited, domain.DepositedEvent{
		User:       user,
		Amount:     amount,
		NewBalance: account.Balance,
	})
	s.logger.InfoContext(ctx, "deposit credited",
		slog.String("user", user),
		slog.String("amount", domain.FormatAmount(amount)),
		slog.String("balance", domain.FormatAmount(account.Balance)),
	)

	return account, nil
}

// Withdraw debits the user's custodial balance and moves amount from the
// escrow vault back to the user's wallet. The debit is ordered before the
// external transfer inside one atomic scope, so a transfer failure aborts
// the whole operation and the ledger is never ahead of actual custody.
func (s *LedgerService) Withdraw(ctx context.Context, user string, amount uint64) (domain.UserAccount, error) {
	if amount == 0 {
		return domain.UserAccount{}, domain.ErrInvalidAmount
	}

	unlock, err := s.locks.Acquire(ctx, accountLockKey(user), lockTTL)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: lock account %s: %w", user, err)
	}
	defer unlock()

	var account domain.UserAccount
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		account, err = s.accounts.Get(ctx, user)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		if account.Balance < amount {
			return domain.ErrInsufficientBalance
		}

		balance, err := domain.CheckedSub(account.Balance, amount)
		if err != nil {
			return err
		}
		account.Balance = balance
		account.UpdatedAt = s.now().UTC()

		if err := s.accounts.Upsert(ctx, account); err != nil {
			return err
		}

		// Escrow -> wallet, authorized by the vault's delegated capability.
		return s.mover.Move(ctx, domain.EscrowVault, user, amount, domain.EscrowVault)
	})
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: withdraw %s: %w", user, err)
	}

	s.events.emit(ctx, domain.EventWithdrawn, domain.WithdrawnEvent{
		User:       user,
		Amount:     amount,
		NewBalance: account.Balance,
	})
	s.logger.InfoContext(ctx, "withdrawal paid",
		slog.String("user", user),
		slog.String("amount", domain.FormatAmount(amount)),
		slog.String("balance", domain.FormatAmount(account.Balance)),
	)

	return account, nil
}

// GetAccount returns a user's custodial account.
func (s *LedgerService) GetAccount(ctx context.Context, user string) (domain.UserAccount, error) {
	account, err := s.accounts.Get(ctx, user)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("ledger: get account %s: %w", user, err)
	}
	return account, nil
}
