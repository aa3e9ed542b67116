// Package memory provides in-memory implementations of the domain store
// interfaces. It backs the service tests and the single-process dev mode;
// production uses the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// Store holds all records behind a single mutex. InTx applies the function
// directly: atomicity under concurrent access comes from the per-record
// lock manager the services already hold, which is sufficient for tests and
// a single process.
type Store struct {
	mu        sync.RWMutex
	arena     *domain.ArenaState
	accounts  map[string]domain.UserAccount
	markets   map[uint64]domain.Market
	positions map[positionKey]domain.Position
	audit     []domain.AuditEntry
}

type positionKey struct {
	user     string
	marketID uint64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:  make(map[string]domain.UserAccount),
		markets:   make(map[uint64]domain.Market),
		positions: make(map[positionKey]domain.Position),
	}
}

// InTx implements domain.Transactor.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- domain.ArenaStore ---

func (s *Store) Create(ctx context.Context, state domain.ArenaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arena != nil {
		return domain.ErrAlreadyExists
	}
	st := state
	s.arena = &st
	return nil
}

func (s *Store) Get(ctx context.Context) (domain.ArenaState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.arena == nil {
		return domain.ArenaState{}, domain.ErrNotFound
	}
	return *s.arena, nil
}

func (s *Store) Update(ctx context.Context, state domain.ArenaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arena == nil {
		return domain.ErrNotFound
	}
	st := state
	s.arena = &st
	return nil
}

// Arena returns the store itself typed as an ArenaStore. The Store method
// set collides across interfaces (Create, Get, Update exist for both arena
// and markets), so the record-specific stores are exposed as small views.
func (s *Store) Arena() domain.ArenaStore { return (*arenaView)(s) }

// Accounts returns the AccountStore view.
func (s *Store) Accounts() domain.AccountStore { return (*accountView)(s) }

// Markets returns the MarketStore view.
func (s *Store) Markets() domain.MarketStore { return (*marketView)(s) }

// Positions returns the PositionStore view.
func (s *Store) Positions() domain.PositionStore { return (*positionView)(s) }

// Audit returns the AuditStore view.
func (s *Store) Audit() domain.AuditStore { return (*auditView)(s) }

// --- views ---

type arenaView Store

func (v *arenaView) Create(ctx context.Context, state domain.ArenaState) error {
	return (*Store)(v).Create(ctx, state)
}
func (v *arenaView) Get(ctx context.Context) (domain.ArenaState, error) {
	return (*Store)(v).Get(ctx)
}
func (v *arenaView) Update(ctx context.Context, state domain.ArenaState) error {
	return (*Store)(v).Update(ctx, state)
}

type accountView Store

func (v *accountView) Upsert(ctx context.Context, account domain.UserAccount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accounts[account.User] = account
	return nil
}

func (v *accountView) Get(ctx context.Context, user string) (domain.UserAccount, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	account, ok := v.accounts[user]
	if !ok {
		return domain.UserAccount{}, domain.ErrNotFound
	}
	return account, nil
}

type marketView Store

func (v *marketView) Create(ctx context.Context, market domain.Market) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.markets[market.ID]; ok {
		return domain.ErrAlreadyExists
	}
	v.markets[market.ID] = market
	return nil
}

func (v *marketView) Get(ctx context.Context, id uint64) (domain.Market, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	market, ok := v.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return market, nil
}

func (v *marketView) Update(ctx context.Context, market domain.Market) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.markets[market.ID]; !ok {
		return domain.ErrNotFound
	}
	v.markets[market.ID] = market
	return nil
}

func (v *marketView) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.Market
	for _, m := range v.markets {
		if opts.Status != "" && m.Status() != opts.Status {
			continue
		}
		if opts.Category != "" && m.Category != opts.Category {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return paginate(out, opts), nil
}

func (v *marketView) ListResolvedBefore(ctx context.Context, before time.Time) ([]domain.Market, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.Market
	for _, m := range v.markets {
		if m.Resolved && m.ResolutionTime.Before(before) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type positionView Store

func (v *positionView) Create(ctx context.Context, pos domain.Position) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := positionKey{user: pos.User, marketID: pos.MarketID}
	if _, ok := v.positions[key]; ok {
		return domain.ErrAlreadyExists
	}
	v.positions[key] = pos
	return nil
}

func (v *positionView) Get(ctx context.Context, user string, marketID uint64) (domain.Position, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pos, ok := v.positions[positionKey{user: user, marketID: marketID}]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (v *positionView) Update(ctx context.Context, pos domain.Position) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := positionKey{user: pos.User, marketID: pos.MarketID}
	if _, ok := v.positions[key]; !ok {
		return domain.ErrNotFound
	}
	v.positions[key] = pos
	return nil
}

func (v *positionView) ListByMarket(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.Position
	for _, p := range v.positions {
		if p.MarketID == marketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

func (v *positionView) ListByUser(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Position, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.Position
	for _, p := range v.positions {
		if p.User == user {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return paginate(out, opts), nil
}

type auditView Store

func (v *auditView) Log(ctx context.Context, event string, detail map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.audit = append(v.audit, domain.AuditEntry{
		ID:        int64(len(v.audit) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (v *auditView) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.AuditEntry, len(v.audit))
	copy(out, v.audit)
	return paginate(out, opts), nil
}

func (v *auditView) ListBefore(ctx context.Context, before time.Time) ([]domain.AuditEntry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.AuditEntry
	for _, e := range v.audit {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func paginate[T any](in []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}

// Compile-time interface checks.
var (
	_ domain.Transactor    = (*Store)(nil)
	_ domain.ArenaStore    = (*arenaView)(nil)
	_ domain.AccountStore  = (*accountView)(nil)
	_ domain.MarketStore   = (*marketView)(nil)
	_ domain.PositionStore = (*positionView)(nil)
	_ domain.AuditStore    = (*auditView)(nil)
)
