package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/feedgod/arena/internal/domain"
)

// MarketStore implements domain.MarketStore. Oracle values are stored as
// text because they exceed the range of BIGINT.
type MarketStore struct {
	client *Client
}

// NewMarketStore creates a MarketStore backed by the given client.
func NewMarketStore(client *Client) *MarketStore {
	return &MarketStore{client: client}
}

const marketCols = `id, oracle_feed, description, category, start_value, end_value,
	resolution_time, total_up_pool, total_down_pool, resolved, outcome, created_at`

// Create inserts a new market.
func (s *MarketStore) Create(ctx context.Context, market domain.Market) error {
	const query = `
		INSERT INTO markets (` + marketCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.client.q(ctx).Exec(ctx, query,
		int64(market.ID), market.OracleFeed, market.Description, market.Category,
		bigIntText(market.StartValue), bigIntText(market.EndValue),
		market.ResolutionTime,
		int64(market.TotalUpPool), int64(market.TotalDownPool),
		market.Resolved, market.Outcome, market.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create market %d: %w", market.ID, err)
	}
	return nil
}

// Get returns the market with the given id.
func (s *MarketStore) Get(ctx context.Context, id uint64) (domain.Market, error) {
	const query = `SELECT ` + marketCols + ` FROM markets WHERE id = $1`

	market, err := scanMarket(s.client.q(ctx).QueryRow(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return market, nil
}

// Update replaces the mutable fields of a market.
func (s *MarketStore) Update(ctx context.Context, market domain.Market) error {
	const query = `
		UPDATE markets SET
			end_value       = $2,
			total_up_pool   = $3,
			total_down_pool = $4,
			resolved        = $5,
			outcome         = $6
		WHERE id = $1`

	tag, err := s.client.q(ctx).Exec(ctx, query,
		int64(market.ID), bigIntText(market.EndValue),
		int64(market.TotalUpPool), int64(market.TotalDownPool),
		market.Resolved, market.Outcome,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", market.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns markets matching the options, newest first.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE 1=1`
	args := make([]any, 0, 4)

	if opts.Category != "" {
		args = append(args, opts.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	switch opts.Status {
	case domain.MarketStatusOpen:
		query += " AND NOT resolved"
	case domain.MarketStatusResolved:
		query += " AND resolved"
	}
	query += " ORDER BY id DESC"
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
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// ListResolvedBefore returns resolved markets with a resolution time strictly
// before the cutoff.
func (s *MarketStore) ListResolvedBefore(ctx context.Context, before time.Time) ([]domain.Market, error) {
	const query = `
		SELECT ` + marketCols + ` FROM markets
		WHERE resolved AND resolution_time < $1
		ORDER BY id`

	rows, err := s.client.q(ctx).Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list resolved markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, market)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate markets: %w", err)
	}
	return markets, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		market           domain.Market
		id, upPool, down int64
		start, end       *string
	)
	err := row.Scan(
		&id, &market.OracleFeed, &market.Description, &market.Category,
		&start, &end, &market.ResolutionTime,
		&upPool, &down, &market.Resolved, &market.Outcome, &market.CreatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	market.ID = uint64(id)
	market.TotalUpPool = uint64(upPool)
	market.TotalDownPool = uint64(down)
	if market.StartValue, err = bigIntFromText(start); err != nil {
		return domain.Market{}, err
	}
	if market.EndValue, err = bigIntFromText(end); err != nil {
		return domain.Market{}, err
	}
	return market, nil
}

// bigIntText renders an oracle value for a TEXT column, nil for NULL.
func bigIntText(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func bigIntFromText(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("postgres: malformed oracle value %q", *s)
	}
	return v, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
