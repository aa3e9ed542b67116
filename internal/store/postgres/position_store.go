package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/feedgod/arena/internal/domain"
)

// PositionStore implements domain.PositionStore.
type PositionStore struct {
	client *Client
}

// NewPositionStore creates a PositionStore backed by the given client.
func NewPositionStore(client *Client) *PositionStore {
	return &PositionStore{client: client}
}

const positionCols = `user_id, market_id, prediction, amount, claimed, placed_at, claimed_at`

// Create inserts a position. The composite primary key rejects a second
// position by the same user on the same market.
func (s *PositionStore) Create(ctx context.Context, pos domain.Position) error {
	const query = `
		INSERT INTO positions (` + positionCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.client.q(ctx).Exec(ctx, query,
		pos.User, int64(pos.MarketID), pos.Prediction, int64(pos.Amount),
		pos.Claimed, pos.PlacedAt, pos.ClaimedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create position %s/%d: %w", pos.User, pos.MarketID, err)
	}
	return nil
}

// Get returns the position held by user on the given market.
func (s *PositionStore) Get(ctx context.Context, user string, marketID uint64) (domain.Position, error) {
	const query = `SELECT ` + positionCols + ` FROM positions WHERE user_id = $1 AND market_id = $2`

	pos, err := scanPosition(s.client.q(ctx).QueryRow(ctx, query, user, int64(marketID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s/%d: %w", user, marketID, err)
	}
	return pos, nil
}

// Update replaces the mutable fields of a position.
func (s *PositionStore) Update(ctx context.Context, pos domain.Position) error {
	const query = `
		UPDATE positions SET claimed = $3, claimed_at = $4
		WHERE user_id = $1 AND market_id = $2`

	tag, err := s.client.q(ctx).Exec(ctx, query,
		pos.User, int64(pos.MarketID), pos.Claimed, pos.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update position %s/%d: %w", pos.User, pos.MarketID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMarket returns every position on the given market.
func (s *PositionStore) ListByMarket(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	const query = `SELECT ` + positionCols + ` FROM positions WHERE market_id = $1 ORDER BY placed_at`

	rows, err := s.client.q(ctx).Query(ctx, query, int64(marketID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for market %d: %w", marketID, err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

// ListByUser returns the user's positions, newest first.
func (s *PositionStore) ListByUser(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionCols + ` FROM positions WHERE user_id = $1 ORDER BY placed_at DESC`
	args := []any{user}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.client.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for user %s: %w", user, err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

func collectPositions(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate positions: %w", err)
	}
	return positions, nil
}

func scanPosition(row pgx.Row) (domain.Position, error) {
	var (
		pos              domain.Position
		marketID, amount int64
	)
	err := row.Scan(
		&pos.User, &marketID, &pos.Prediction, &amount,
		&pos.Claimed, &pos.PlacedAt, &pos.ClaimedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	pos.MarketID = uint64(marketID)
	pos.Amount = uint64(amount)
	return pos, nil
}

// Compile-time interface check.
var _ domain.PositionStore = (*PositionStore)(nil)
