package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/service"
)

// SettlementService defines what the claim handler needs from the service
// layer.
type SettlementService interface {
	Claim(ctx context.Context, user string, marketID uint64) (service.Settlement, error)
}

// ClaimHandler serves the settlement endpoint.
type ClaimHandler struct {
	settlement SettlementService
	logger     *slog.Logger
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(settlement SettlementService, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{settlement: settlement, logger: logger}
}

type claimRequest struct {
	User     string `json:"user,omitempty"`
	MarketID uint64 `json:"market_id"`
}

type claimResponse struct {
	Won             bool   `json:"won"`
	Payout          uint64 `json:"payout"`
	PayoutFormatted string `json:"payout_formatted"`
	Fee             uint64 `json:"fee"`
}

// Claim settles the caller's position on a resolved market.
// POST /api/claims
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := identity(r, req.User)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	settlement, err := h.settlement.Claim(r.Context(), user, req.MarketID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: claim failed",
			slog.String("user", user),
			slog.Uint64("market_id", req.MarketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{
		Won:             settlement.Won,
		Payout:          settlement.Payout,
		PayoutFormatted: domain.FormatAmount(settlement.Payout),
		Fee:             settlement.Fee,
	})
}
