package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
)

func TestDeposit_CreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.ledger.Deposit(ctx, "alice", 3_000_000)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.User)
	assert.Equal(t, uint64(3_000_000), account.Balance)

	// Tokens were moved into escrow, authorized by the depositor.
	require.Len(t, env.mover.moves, 1)
	move := env.mover.moves[0]
	assert.Equal(t, "alice", move.From)
	assert.Equal(t, domain.EscrowVault, move.To)
	assert.Equal(t, uint64(3_000_000), move.Amount)
	assert.Equal(t, "alice", move.Authorizer)
}

func TestDeposit_Accumulates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.Deposit(ctx, "alice", 1_000_000)
	require.NoError(t, err)
	account, err := env.ledger.Deposit(ctx, "alice", 2_500_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_500_000), account.Balance)
}

func TestDeposit_ZeroAmount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.Deposit(context.Background(), "alice", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestDeposit_TransferFailureLeavesNoCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mover.err = errors.New("gateway unavailable")

	_, err := env.ledger.Deposit(ctx, "alice", 1_000_000)
	require.Error(t, err)

	_, err = env.ledger.GetAccount(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, "alice", 5_000_000)

	account, err := env.ledger.Withdraw(ctx, "alice", 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), account.Balance)

	// Escrow -> wallet, authorized by the vault.
	require.Len(t, env.mover.moves, 2)
	move := env.mover.moves[1]
	assert.Equal(t, domain.EscrowVault, move.From)
	assert.Equal(t, "alice", move.To)
	assert.Equal(t, domain.EscrowVault, move.Authorizer)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, "alice", 1_000_000)

	_, err := env.ledger.Withdraw(ctx, "alice", 1_000_001)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), account.Balance)
}

func TestWithdraw_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.Withdraw(context.Background(), "nobody", 1_000_000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithdraw_FullBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, "alice", 5_000_000)

	account, err := env.ledger.Withdraw(ctx, "alice", 5_000_000)
	require.NoError(t, err)
	assert.Zero(t, account.Balance)
}
