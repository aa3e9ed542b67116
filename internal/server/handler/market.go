package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// MarketService defines what the market handler needs from the service layer.
type MarketService interface {
	Create(ctx context.Context, caller, oracleFeed, description, category string, resolutionTime time.Time) (domain.Market, error)
	Resolve(ctx context.Context, marketID uint64) (domain.Market, error)
	Get(ctx context.Context, marketID uint64) (domain.Market, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
}

// MarketHandler serves market lifecycle endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

type createMarketRequest struct {
	Caller         string    `json:"caller,omitempty"`
	OracleFeed     string    `json:"oracle_feed"`
	Description    string    `json:"description"`
	Category       string    `json:"category,omitempty"`
	ResolutionTime time.Time `json:"resolution_time"`
}

// CreateMarket opens a new market. Authority only.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	caller := identity(r, req.Caller)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	market, err := h.markets.Create(r.Context(), caller, req.OracleFeed, req.Description, req.Category, req.ResolutionTime)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create market failed",
			slog.String("caller", caller),
			slog.String("oracle_feed", req.OracleFeed),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMarketJSON(market))
}

// ResolveMarket settles a market against its oracle. Permissionless once the
// resolution time has passed.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}

	market, err := h.markets.Resolve(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: resolve market failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketJSON(market))
}

// listMarketsResponse wraps the list endpoint output with paging metadata.
type listMarketsResponse struct {
	Markets []marketJSON `json:"markets"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// ListMarkets returns markets with pagination and optional category/status
// filters.
// GET /api/markets?limit=50&offset=0&category=crypto&status=open
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	opts.Category = r.URL.Query().Get("category")

	switch r.URL.Query().Get("status") {
	case "":
	case "open":
		opts.Status = domain.MarketStatusOpen
	case "resolved":
		opts.Status = domain.MarketStatusResolved
	default:
		writeError(w, http.StatusBadRequest, "status must be open or resolved")
		return
	}

	markets, err := h.markets.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	out := make([]marketJSON, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketJSON(m))
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: out,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}

	market, err := h.markets.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketJSON(market))
}
