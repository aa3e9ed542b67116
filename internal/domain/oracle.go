package domain

import (
	"context"
	"math/big"
)

// PriceOracle reads the latest aggregated measurement from an external feed.
// The engine calls it exactly once at market creation and once at
// resolution; staleness and confidence validation are the feed's own
// responsibility.
type PriceOracle interface {
	Read(ctx context.Context, feed string) (*big.Int, error)
}
