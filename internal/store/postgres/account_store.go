package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/feedgod/arena/internal/domain"
)

// AccountStore implements domain.AccountStore.
type AccountStore struct {
	client *Client
}

// NewAccountStore creates an AccountStore backed by the given client.
func NewAccountStore(client *Client) *AccountStore {
	return &AccountStore{client: client}
}

const accountCols = `user_id, balance, total_wagered, total_won, wins, losses,
	current_streak, best_streak, created_at, updated_at`

// Upsert inserts the account or replaces its mutable fields.
func (s *AccountStore) Upsert(ctx context.Context, account domain.UserAccount) error {
	const query = `
		INSERT INTO accounts (` + accountCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			balance        = EXCLUDED.balance,
			total_wagered  = EXCLUDED.total_wagered,
			total_won      = EXCLUDED.total_won,
			wins           = EXCLUDED.wins,
			losses         = EXCLUDED.losses,
			current_streak = EXCLUDED.current_streak,
			best_streak    = EXCLUDED.best_streak,
			updated_at     = EXCLUDED.updated_at`

	_, err := s.client.q(ctx).Exec(ctx, query,
		account.User,
		int64(account.Balance), int64(account.TotalWagered), int64(account.TotalWon),
		int32(account.Wins), int32(account.Losses),
		int32(account.CurrentStreak), int32(account.BestStreak),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert account %s: %w", account.User, err)
	}
	return nil
}

// Get returns the account for the given user.
func (s *AccountStore) Get(ctx context.Context, user string) (domain.UserAccount, error) {
	const query = `SELECT ` + accountCols + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(s.client.q(ctx).QueryRow(ctx, query, user))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserAccount{}, domain.ErrNotFound
		}
		return domain.UserAccount{}, fmt.Errorf("postgres: get account %s: %w", user, err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (domain.UserAccount, error) {
	var (
		a                       domain.UserAccount
		balance, wagered, won   int64
		wins, losses            int32
		curStreak, bestStreak   int32
	)
	err := row.Scan(
		&a.User, &balance, &wagered, &won, &wins, &losses,
		&curStreak, &bestStreak, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.UserAccount{}, err
	}
	a.Balance = uint64(balance)
	a.TotalWagered = uint64(wagered)
	a.TotalWon = uint64(won)
	a.Wins = uint32(wins)
	a.Losses = uint32(losses)
	a.CurrentStreak = uint32(curStreak)
	a.BestStreak = uint32(bestStreak)
	return a, nil
}

// Compile-time interface check.
var _ domain.AccountStore = (*AccountStore)(nil)
