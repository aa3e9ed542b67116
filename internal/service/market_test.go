package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
)

func TestCreateMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.oracle.set("btc-usd", 50_000)

	m, err := env.market.Create(ctx, "authority", "btc-usd", "BTC up?", "crypto", env.clock.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.ID)
	assert.Equal(t, "50000", m.StartValue.String())
	assert.False(t, m.Resolved)
	assert.Nil(t, m.Outcome)

	// IDs are drawn from the arena's monotonic sequence.
	m2, err := env.market.Create(ctx, "authority", "btc-usd", "again", "crypto", env.clock.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m2.ID)

	arena, err := env.admin.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), arena.TotalMarkets)
}

func TestCreateMarket_AuthorityOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.oracle.set("btc-usd", 50_000)

	_, err := env.market.Create(ctx, "mallory", "btc-usd", "BTC up?", "crypto", env.clock.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateMarket_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)
	env.oracle.set("btc-usd", 50_000)
	future := env.clock.Add(time.Hour)

	_, err := env.market.Create(ctx, "authority", "btc-usd", strings.Repeat("d", domain.MaxDescriptionLen+1), "crypto", future)
	assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)

	_, err = env.market.Create(ctx, "authority", "btc-usd", "ok", strings.Repeat("c", domain.MaxCategoryLen+1), future)
	assert.ErrorIs(t, err, domain.ErrCategoryTooLong)

	_, err = env.market.Create(ctx, "authority", "", "ok", "crypto", future)
	assert.ErrorIs(t, err, domain.ErrInvalidOracle)

	// Resolution time must be strictly in the future.
	_, err = env.market.Create(ctx, "authority", "btc-usd", "ok", "crypto", env.clock)
	assert.ErrorIs(t, err, domain.ErrInvalidResolutionTime)

	// Maximal lengths are accepted.
	_, err = env.market.Create(ctx, "authority", "btc-usd",
		strings.Repeat("d", domain.MaxDescriptionLen), strings.Repeat("c", domain.MaxCategoryLen), future)
	require.NoError(t, err)
}

func TestResolveMarket_Up(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	m := env.openMarket(t, 50_000)
	env.advance(time.Hour)
	env.oracle.set("btc-usd", 50_001)

	resolved, err := env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.Outcome)
	assert.True(t, *resolved.Outcome)
	assert.Equal(t, "50001", resolved.EndValue.String())
}

func TestResolveMarket_TieResolvesDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	m := env.openMarket(t, 50_000)
	env.advance(time.Hour)
	// End value equal to start: not strictly greater, so down wins.
	env.oracle.set("btc-usd", 50_000)

	resolved, err := env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.Outcome)
	assert.False(t, *resolved.Outcome)
}

func TestResolveMarket_Timing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	m := env.openMarket(t, 50_000)

	// One second early is rejected.
	env.clock = m.ResolutionTime.Add(-time.Second)
	_, err := env.market.Resolve(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrResolutionTimeNotReached)

	// Exactly at the resolution time succeeds.
	env.clock = m.ResolutionTime
	env.oracle.set("btc-usd", 51_000)
	_, err = env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)
}

func TestResolveMarket_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	m := env.openMarket(t, 50_000)
	env.advance(time.Hour)
	env.oracle.set("btc-usd", 51_000)
	_, err := env.market.Resolve(ctx, m.ID)
	require.NoError(t, err)

	// The outcome is never re-applied, even if the feed has moved since.
	env.oracle.set("btc-usd", 40_000)
	_, err = env.market.Resolve(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMarketAlreadyResolved)

	got, err := env.market.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, *got.Outcome)
}

func TestListMarkets_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.initArena(t, 500)

	env.oracle.set("btc-usd", 50_000)
	for _, category := range []string{"crypto", "crypto", "sports"} {
		_, err := env.market.Create(ctx, "authority", "btc-usd", "m", category, env.clock.Add(time.Hour))
		require.NoError(t, err)
	}
	// Resolve the first market.
	env.advance(time.Hour)
	_, err := env.market.Resolve(ctx, 0)
	require.NoError(t, err)

	open, err := env.market.List(ctx, domain.ListOpts{Status: domain.MarketStatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	resolved, err := env.market.List(ctx, domain.ListOpts{Status: domain.MarketStatusResolved})
	require.NoError(t, err)
	assert.Len(t, resolved, 1)

	crypto, err := env.market.List(ctx, domain.ListOpts{Category: "crypto"})
	require.NoError(t, err)
	assert.Len(t, crypto, 2)
}
