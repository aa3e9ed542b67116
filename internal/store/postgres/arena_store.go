package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/feedgod/arena/internal/domain"
)

// ArenaStore implements domain.ArenaStore. The singleton row is enforced by
// the schema.
type ArenaStore struct {
	client *Client
}

// NewArenaStore creates an ArenaStore backed by the given client.
func NewArenaStore(client *Client) *ArenaStore {
	return &ArenaStore{client: client}
}

// Create inserts the singleton arena state.
func (s *ArenaStore) Create(ctx context.Context, state domain.ArenaState) error {
	const query = `
		INSERT INTO arena_state (
			authority, treasury, fee_bps, total_volume, total_markets,
			initialized_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.client.q(ctx).Exec(ctx, query,
		state.Authority, state.Treasury, int16(state.FeeBps),
		int64(state.TotalVolume), int64(state.TotalMarkets),
		state.InitializedAt, state.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create arena state: %w", err)
	}
	return nil
}

// Get returns the singleton arena state.
func (s *ArenaStore) Get(ctx context.Context) (domain.ArenaState, error) {
	const query = `
		SELECT authority, treasury, fee_bps, total_volume, total_markets,
		       initialized_at, updated_at
		FROM arena_state`

	var (
		state   domain.ArenaState
		feeBps  int16
		volume  int64
		markets int64
	)
	err := s.client.q(ctx).QueryRow(ctx, query).Scan(
		&state.Authority, &state.Treasury, &feeBps, &volume, &markets,
		&state.InitializedAt, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ArenaState{}, domain.ErrNotFound
		}
		return domain.ArenaState{}, fmt.Errorf("postgres: get arena state: %w", err)
	}
	state.FeeBps = uint16(feeBps)
	state.TotalVolume = uint64(volume)
	state.TotalMarkets = uint64(markets)
	return state, nil
}

// Update replaces the mutable fields of the singleton.
func (s *ArenaStore) Update(ctx context.Context, state domain.ArenaState) error {
	const query = `
		UPDATE arena_state SET
			authority     = $1,
			treasury      = $2,
			fee_bps       = $3,
			total_volume  = $4,
			total_markets = $5,
			updated_at    = $6`

	tag, err := s.client.q(ctx).Exec(ctx, query,
		state.Authority, state.Treasury, int16(state.FeeBps),
		int64(state.TotalVolume), int64(state.TotalMarkets), state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update arena state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Compile-time interface check.
var _ domain.ArenaStore = (*ArenaStore)(nil)
