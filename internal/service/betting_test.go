package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
)

func TestPlaceBet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 5_000_000_000)

	m := env.openMarket(t, 50_000)
	pos, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 2_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, "alice", pos.User)
	assert.True(t, pos.Prediction)
	assert.Equal(t, uint64(2_000_000_000), pos.Amount)
	assert.False(t, pos.Claimed)

	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000_000), account.Balance)
	assert.Equal(t, uint64(2_000_000_000), account.TotalWagered)

	market, err := env.market.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), market.TotalUpPool)
	assert.Zero(t, market.TotalDownPool)

	arena, err := env.admin.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), arena.TotalVolume)
}

func TestPlaceBet_SizeBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", domain.MaxBet+domain.MinBet)

	m := env.openMarket(t, 50_000)

	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet-1)
	assert.ErrorIs(t, err, domain.ErrBetTooSmall)

	_, err = env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MaxBet+1)
	assert.ErrorIs(t, err, domain.ErrBetTooLarge)

	// Boundaries themselves are accepted.
	_, err = env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MaxBet)
	require.NoError(t, err)
}

func TestPlaceBet_ClosesAtResolutionTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 5_000_000_000)

	m := env.openMarket(t, 50_000)

	// One second before the deadline still works.
	env.clock = m.ResolutionTime.Add(-time.Second)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet)
	require.NoError(t, err)

	// Exactly at the deadline is closed.
	env.clock = m.ResolutionTime
	_, err = env.betting.PlaceBet(ctx, "bob", m.ID, false, domain.MinBet)
	assert.ErrorIs(t, err, domain.ErrBettingClosed)
}

func TestPlaceBet_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", domain.MinBet)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet+1)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestPlaceBet_OnePositionPerMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 5_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet)
	require.NoError(t, err)

	// A second bet is a conflict even on the same side.
	_, err = env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = env.betting.PlaceBet(ctx, "alice", m.ID, false, domain.MinBet)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestPlaceBet_ResolvedMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 5_000_000_000)

	m := env.openMarket(t, 50_000)
	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err := env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	_, err = env.betting.PlaceBet(ctx, "alice", m.ID, true, domain.MinBet)
	assert.ErrorIs(t, err, domain.ErrMarketAlreadyResolved)
}

func TestPlaceBet_PoolConservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	m := env.openMarket(t, 50_000)
	users := []struct {
		name       string
		prediction bool
		amount     uint64
	}{
		{"alice", true, 1_500_000},
		{"bob", false, 7_250_000},
		{"carol", true, 3_000_000},
		{"dave", false, 2_125_000},
	}
	var wantUp, wantDown uint64
	for _, u := range users {
		env.fund(t, u.name, u.amount)
		_, err := env.betting.PlaceBet(ctx, u.name, m.ID, u.prediction, u.amount)
		require.NoError(t, err)
		if u.prediction {
			wantUp += u.amount
		} else {
			wantDown += u.amount
		}
	}

	market, err := env.market.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, wantUp, market.TotalUpPool)
	assert.Equal(t, wantDown, market.TotalDownPool)

	arena, err := env.admin.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantUp+wantDown, arena.TotalVolume)
}

func TestListPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 10_000_000_000)

	for i := 0; i < 3; i++ {
		m := env.openMarket(t, 50_000)
		_, err := env.betting.PlaceBet(ctx, "alice", m.ID, i%2 == 0, domain.MinBet)
		require.NoError(t, err)
	}

	positions, err := env.betting.ListPositions(ctx, "alice", domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, positions, 2)

	all, err := env.betting.ListPositions(ctx, "alice", domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
