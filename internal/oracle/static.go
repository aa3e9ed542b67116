package oracle

import (
	"context"
	"math/big"
	"sync"

	"github.com/feedgod/arena/internal/domain"
)

// Static is an in-process oracle for development and tests. Feed values are
// set directly and reads return the last set value.
type Static struct {
	mu    sync.RWMutex
	feeds map[string]*big.Int
}

// NewStatic creates an empty Static oracle.
func NewStatic() *Static {
	return &Static{feeds: make(map[string]*big.Int)}
}

// Set stores the value the next Read of feed will return.
func (s *Static) Set(feed string, value *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[feed] = new(big.Int).Set(value)
}

// Read returns the stored value, or domain.ErrInvalidOracle for unknown feeds.
func (s *Static) Read(_ context.Context, feed string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.feeds[feed]
	if !ok {
		return nil, domain.ErrInvalidOracle
	}
	return new(big.Int).Set(value), nil
}

var _ domain.PriceOracle = (*Static)(nil)
