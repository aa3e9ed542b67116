package service

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/store/memory"
)

// fakeOracle serves fixed values per feed.
type fakeOracle struct {
	values map[string]*big.Int
}

func (f *fakeOracle) Read(ctx context.Context, feed string) (*big.Int, error) {
	v, ok := f.values[feed]
	if !ok {
		return nil, domain.ErrInvalidOracle
	}
	return new(big.Int).Set(v), nil
}

func (f *fakeOracle) set(feed string, v int64) {
	f.values[feed] = big.NewInt(v)
}

// recordedMove is one call observed by fakeMover.
type recordedMove struct {
	From, To, Authorizer string
	Amount               uint64
}

// fakeMover records custody movements and can be told to fail.
type fakeMover struct {
	moves []recordedMove
	err   error
}

func (f *fakeMover) Move(ctx context.Context, from, to string, amount uint64, authorizer string) error {
	if f.err != nil {
		return f.err
	}
	f.moves = append(f.moves, recordedMove{From: from, To: to, Amount: amount, Authorizer: authorizer})
	return nil
}

// testEnv bundles every service against a shared in-memory store so tests
// can run full flows: initialize, deposit, create, bet, resolve, claim.
type testEnv struct {
	store  *memory.Store
	oracle *fakeOracle
	mover  *fakeMover
	clock  time.Time

	admin      *AdminService
	ledger     *LedgerService
	market     *MarketService
	betting    *BettingService
	settlement *SettlementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	locks := memory.NewLockManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orc := &fakeOracle{values: make(map[string]*big.Int)}
	mover := &fakeMover{}

	env := &testEnv{
		store:  store,
		oracle: orc,
		mover:  mover,
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	env.admin = NewAdminService(store.Arena(), store, locks, nil, store.Audit(), logger)
	env.ledger = NewLedgerService(store.Accounts(), store, locks, mover, nil, store.Audit(), logger)
	env.market = NewMarketService(store.Arena(), store.Markets(), orc, store, locks, nil, store.Audit(), nil, logger)
	env.betting = NewBettingService(store.Arena(), store.Markets(), store.Accounts(), store.Positions(), store, locks, nil, store.Audit(), logger)
	env.settlement = NewSettlementService(store.Arena(), store.Markets(), store.Accounts(), store.Positions(), store, locks, mover, nil, nil, store.Audit(), logger)

	now := func() time.Time { return env.clock }
	env.admin.now = now
	env.ledger.now = now
	env.market.now = now
	env.betting.now = now
	env.settlement.now = now

	return env
}

// advance moves the fixture clock forward.
func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

// initArena creates the singleton with the given fee and a funded treasury
// identity.
func (e *testEnv) initArena(t *testing.T, feeBps uint16) {
	t.Helper()
	_, err := e.admin.Initialize(context.Background(), "authority", "treasury", feeBps)
	require.NoError(t, err)
}

// fund deposits amount into a fresh account.
func (e *testEnv) fund(t *testing.T, user string, amount uint64) {
	t.Helper()
	_, err := e.ledger.Deposit(context.Background(), user, amount)
	require.NoError(t, err)
}

// openMarket creates a market on feed "btc-usd" resolving one hour out and
// returns it.
func (e *testEnv) openMarket(t *testing.T, startValue int64) domain.Market {
	t.Helper()
	e.oracle.set("btc-usd", startValue)
	m, err := e.market.Create(context.Background(), "authority", "btc-usd", "BTC up in an hour?", "crypto", e.clock.Add(time.Hour))
	require.NoError(t, err)
	return m
}
