package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
)

func TestComputePayout_SingleWinner(t *testing.T) {
	// 1000 up vs 1000 down at 5% fee: total 2000, fee 100, the sole up
	// winner takes the rest.
	payout, fee, err := computePayout(1_000_000_000, 1_000_000_000, 1_000_000_000, true, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), fee)
	assert.Equal(t, uint64(1_900_000_000), payout)
}

func TestComputePayout_SplitsProportionally(t *testing.T) {
	// Two winners staked 300 and 700 on down against 1000 up, 5% fee.
	// Total 2000, fee 100, pool after fee 1900.
	p1, fee, err := computePayout(300_000_000, 1_000_000_000, 1_000_000_000, false, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), fee)
	assert.Equal(t, uint64(570_000_000), p1) // 300 * 1900 / 1000

	p2, _, err := computePayout(700_000_000, 1_000_000_000, 1_000_000_000, false, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_330_000_000), p2) // 700 * 1900 / 1000

	// Winners never receive more than the pool after fee.
	assert.LessOrEqual(t, p1+p2, uint64(1_900_000_000))
}

func TestComputePayout_ZeroFee(t *testing.T) {
	payout, fee, err := computePayout(500, 500, 1_500, true, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fee)
	assert.Equal(t, uint64(2_000), payout)
}

func TestComputePayout_RoundingDust(t *testing.T) {
	// Awkward numbers: each payout floors, so the swept fee plus all
	// payouts never exceeds the pool.
	totalUp, totalDown := uint64(999_999_999), uint64(1_000_000_001)
	var paid uint64
	stakes := []uint64{333_333_333, 333_333_333, 333_333_333}
	var fee uint64
	for _, stake := range stakes {
		p, f, err := computePayout(stake, totalUp, totalDown, true, 737)
		require.NoError(t, err)
		paid += p
		fee = f
	}
	assert.LessOrEqual(t, paid+fee, totalUp+totalDown)
}

func TestClaim_Winner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 1_000_000_000)
	env.fund(t, "bob", 1_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, "bob", m.ID, false, 1_000_000_000)
	require.NoError(t, err)

	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	settlement, err := env.settlement.Claim(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.True(t, settlement.Won)
	assert.Equal(t, uint64(1_900_000_000), settlement.Payout)
	assert.Equal(t, uint64(100_000_000), settlement.Fee)

	// Fee swept from escrow to treasury.
	require.Len(t, env.mover.moves, 3) // two deposits + fee sweep
	sweep := env.mover.moves[2]
	assert.Equal(t, domain.EscrowVault, sweep.From)
	assert.Equal(t, "treasury", sweep.To)
	assert.Equal(t, uint64(100_000_000), sweep.Amount)

	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_900_000_000), account.Balance)
	assert.Equal(t, uint64(1_900_000_000), account.TotalWon)
	assert.Equal(t, uint32(1), account.Wins)
	assert.Equal(t, uint32(1), account.CurrentStreak)
}

func TestClaim_Loser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 2_000_000_000)
	env.fund(t, "bob", 2_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, "bob", m.ID, false, 1_000_000_000)
	require.NoError(t, err)

	env.advance(time.Hour)
	env.oracle.set("btc-usd", 49_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	settlement, err := env.settlement.Claim(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.False(t, settlement.Won)
	assert.Zero(t, settlement.Payout)
	assert.Zero(t, settlement.Fee)

	// Stake stays in the pool; only statistics change.
	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), account.Balance)
	assert.Equal(t, uint32(1), account.Losses)
	assert.Zero(t, account.CurrentStreak)
}

func TestClaim_LossResetsStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 0)
	env.fund(t, "alice", 10_000_000_000)
	env.fund(t, "bob", 10_000_000_000)

	// Win twice, then lose once.
	outcomes := []struct {
		alicePrediction bool
		endValue        int64
	}{
		{true, 51_000},
		{true, 51_000},
		{true, 49_000},
	}
	for _, step := range outcomes {
		m := env.openMarket(t, 50_000)
		_, err := env.betting.PlaceBet(ctx, "alice", m.ID, step.alicePrediction, 1_000_000_000)
		require.NoError(t, err)
		_, err = env.betting.PlaceBet(ctx, "bob", m.ID, !step.alicePrediction, 1_000_000_000)
		require.NoError(t, err)

		env.advance(time.Hour)
		env.oracle.set("btc-usd", step.endValue)
		_, err = env.market.Resolve(ctx, m.ID)
		require.NoError(t, err)
		_, err = env.settlement.Claim(ctx, "alice", m.ID)
		require.NoError(t, err)
	}

	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), account.Wins)
	assert.Equal(t, uint32(1), account.Losses)
	assert.Zero(t, account.CurrentStreak)
	assert.Equal(t, uint32(2), account.BestStreak)
}

func TestClaim_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 1_000_000_000)
	env.fund(t, "bob", 1_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, "bob", m.ID, false, 1_000_000_000)
	require.NoError(t, err)

	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	_, err = env.settlement.Claim(ctx, "alice", m.ID)
	require.NoError(t, err)

	_, err = env.settlement.Claim(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	// Balance unchanged by the rejected second claim.
	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_900_000_000), account.Balance)
}

func TestClaim_UnresolvedMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 1_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)

	_, err = env.settlement.Claim(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, domain.ErrMarketNotResolved)
}

func TestClaim_NoPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 1_000_000_000)
	env.fund(t, "carol", 1_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)

	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	_, err = env.settlement.Claim(ctx, "carol", m.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestClaim_FeeRateReadAtClaimTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.fund(t, "alice", 1_000_000_000)
	env.fund(t, "bob", 1_000_000_000)

	m := env.openMarket(t, 50_000)
	_, err := env.betting.PlaceBet(ctx, "alice", m.ID, true, 1_000_000_000)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, "bob", m.ID, false, 1_000_000_000)
	require.NoError(t, err)

	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	// Fee raised after resolution but before the claim: the live rate
	// applies.
	_, err = env.admin.UpdateFee(ctx, "authority", 1000)
	require.NoError(t, err)

	settlement, err := env.settlement.Claim(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000_000), settlement.Fee)
	assert.Equal(t, uint64(1_800_000_000), settlement.Payout)
}
