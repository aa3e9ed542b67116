package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/feedgod/arena/internal/domain"
)

// BettingService defines what the bet handler needs from the service layer.
type BettingService interface {
	PlaceBet(ctx context.Context, user string, marketID uint64, prediction bool, amount uint64) (domain.Position, error)
	GetPosition(ctx context.Context, user string, marketID uint64) (domain.Position, error)
	ListPositions(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Position, error)
}

// BetHandler serves wager endpoints.
type BetHandler struct {
	betting BettingService
	logger  *slog.Logger
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(betting BettingService, logger *slog.Logger) *BetHandler {
	return &BetHandler{betting: betting, logger: logger}
}

type placeBetRequest struct {
	User         string `json:"user,omitempty"`
	MarketID     uint64 `json:"market_id"`
	Prediction   string `json:"prediction"` // "up" or "down"
	Amount       uint64 `json:"amount,omitempty"`
	AmountTokens string `json:"amount_tokens,omitempty"`
}

// PlaceBet stakes balance on one side of an open market.
// POST /api/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := identity(r, req.User)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	prediction, ok := parsePrediction(req.Prediction)
	if !ok {
		writeError(w, http.StatusBadRequest, "prediction must be up or down")
		return
	}

	amount := req.Amount
	if req.AmountTokens != "" {
		var err error
		if amount, err = domain.ParseAmount(req.AmountTokens); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	position, err := h.betting.PlaceBet(r.Context(), user, req.MarketID, prediction, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: place bet failed",
			slog.String("user", user),
			slog.Uint64("market_id", req.MarketID),
			slog.Uint64("amount", amount),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPositionJSON(position))
}

// GetPosition returns the caller's position on a market.
// GET /api/markets/{id}/position
func (h *BetHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}

	user := identity(r, r.URL.Query().Get("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	position, err := h.betting.GetPosition(r.Context(), user, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionJSON(position))
}

// listPositionsResponse wraps the list endpoint output.
type listPositionsResponse struct {
	Positions []positionJSON `json:"positions"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}

// ListPositions returns the caller's positions, newest first.
// GET /api/positions
func (h *BetHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	user := identity(r, r.URL.Query().Get("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	opts := parseListOpts(r)
	positions, err := h.betting.ListPositions(r.Context(), user, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list positions failed",
			slog.String("user", user),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	out := make([]positionJSON, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPositionJSON(p))
	}

	writeJSON(w, http.StatusOK, listPositionsResponse{
		Positions: out,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}
