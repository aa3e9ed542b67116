package transfer

import (
	"context"
	"log/slog"

	"github.com/feedgod/arena/internal/domain"
)

// Noop is a TokenMover for development runs without a gateway. It logs each
// movement and reports success.
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates a Noop mover.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) Move(ctx context.Context, from, to string, amount uint64, authorizer string) error {
	n.logger.InfoContext(ctx, "noop transfer",
		"from", from,
		"to", to,
		"amount", amount,
		"authorizer", authorizer,
	)
	return nil
}

var _ domain.TokenMover = (*Noop)(nil)
