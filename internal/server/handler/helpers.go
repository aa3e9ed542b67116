// Package handler contains the HTTP handlers for the arena API. Each handler
// declares the narrow service interface it needs, so the package does not
// depend on the concrete service implementations.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/server/middleware"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a service error onto an HTTP status and writes it.
// Unknown errors become an opaque 500 so internals do not leak.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidPosition):
		writeError(w, http.StatusNotFound, "no position on this market")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrMarketAlreadyResolved):
		writeError(w, http.StatusConflict, "market already resolved")
	case errors.Is(err, domain.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "position already claimed")
	case errors.Is(err, domain.ErrLockHeld):
		writeError(w, http.StatusConflict, "record busy, retry")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "caller is not the authority")
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, "insufficient balance")
	case errors.Is(err, domain.ErrBettingClosed):
		writeError(w, http.StatusUnprocessableEntity, "betting is closed")
	case errors.Is(err, domain.ErrResolutionTimeNotReached):
		writeError(w, http.StatusUnprocessableEntity, "resolution time not reached")
	case errors.Is(err, domain.ErrMarketNotResolved):
		writeError(w, http.StatusUnprocessableEntity, "market not resolved")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBetTooSmall),
		errors.Is(err, domain.ErrBetTooLarge),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrCategoryTooLong),
		errors.Is(err, domain.ErrInvalidResolutionTime),
		errors.Is(err, domain.ErrInvalidFeeBps),
		errors.Is(err, domain.ErrInvalidOracle),
		errors.Is(err, domain.ErrInvalidTreasury):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON parses the request body into dst, limiting its size.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// identity returns the authenticated caller, preferring the auth middleware
// identity but accepting an explicit body value when auth is disabled.
func identity(r *http.Request, bodyUser string) string {
	if id := middleware.Identity(r.Context()); id != "" {
		return id
	}
	return bodyUser
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathID extracts a numeric {id} path parameter.
func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// ---------------------------------------------------------------------------
// Response shapes. Amounts carry both raw fixed-point units and a formatted
// token string; oracle values are decimal strings since they exceed 64 bits.
// ---------------------------------------------------------------------------

type accountJSON struct {
	User             string    `json:"user"`
	Balance          uint64    `json:"balance"`
	BalanceFormatted string    `json:"balance_formatted"`
	TotalWagered     uint64    `json:"total_wagered"`
	TotalWon         uint64    `json:"total_won"`
	Wins             uint32    `json:"wins"`
	Losses           uint32    `json:"losses"`
	CurrentStreak    uint32    `json:"current_streak"`
	BestStreak       uint32    `json:"best_streak"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toAccountJSON(a domain.UserAccount) accountJSON {
	return accountJSON{
		User:             a.User,
		Balance:          a.Balance,
		BalanceFormatted: domain.FormatAmount(a.Balance),
		TotalWagered:     a.TotalWagered,
		TotalWon:         a.TotalWon,
		Wins:             a.Wins,
		Losses:           a.Losses,
		CurrentStreak:    a.CurrentStreak,
		BestStreak:       a.BestStreak,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type marketJSON struct {
	ID             uint64    `json:"id"`
	OracleFeed     string    `json:"oracle_feed"`
	Description    string    `json:"description"`
	Category       string    `json:"category,omitempty"`
	StartValue     string    `json:"start_value"`
	EndValue       string    `json:"end_value,omitempty"`
	ResolutionTime time.Time `json:"resolution_time"`
	TotalUpPool    uint64    `json:"total_up_pool"`
	TotalDownPool  uint64    `json:"total_down_pool"`
	Status         string    `json:"status"`
	Outcome        *bool     `json:"outcome,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMarketJSON(m domain.Market) marketJSON {
	out := marketJSON{
		ID:             m.ID,
		OracleFeed:     m.OracleFeed,
		Description:    m.Description,
		Category:       m.Category,
		ResolutionTime: m.ResolutionTime,
		TotalUpPool:    m.TotalUpPool,
		TotalDownPool:  m.TotalDownPool,
		Status:         string(m.Status()),
		Outcome:        m.Outcome,
		CreatedAt:      m.CreatedAt,
	}
	if m.StartValue != nil {
		out.StartValue = m.StartValue.String()
	}
	if m.EndValue != nil {
		out.EndValue = m.EndValue.String()
	}
	return out
}

type positionJSON struct {
	User            string     `json:"user"`
	MarketID        uint64     `json:"market_id"`
	Prediction      string     `json:"prediction"`
	Amount          uint64     `json:"amount"`
	AmountFormatted string     `json:"amount_formatted"`
	Claimed         bool       `json:"claimed"`
	PlacedAt        time.Time  `json:"placed_at"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
}

func toPositionJSON(p domain.Position) positionJSON {
	prediction := "down"
	if p.Prediction {
		prediction = "up"
	}
	return positionJSON{
		User:            p.User,
		MarketID:        p.MarketID,
		Prediction:      prediction,
		Amount:          p.Amount,
		AmountFormatted: domain.FormatAmount(p.Amount),
		Claimed:         p.Claimed,
		PlacedAt:        p.PlacedAt,
		ClaimedAt:       p.ClaimedAt,
	}
}

type arenaJSON struct {
	Authority     string    `json:"authority"`
	Treasury      string    `json:"treasury"`
	FeeBps        uint16    `json:"fee_bps"`
	TotalVolume   uint64    `json:"total_volume"`
	TotalMarkets  uint64    `json:"total_markets"`
	InitializedAt time.Time `json:"initialized_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toArenaJSON(s domain.ArenaState) arenaJSON {
	return arenaJSON{
		Authority:     s.Authority,
		Treasury:      s.Treasury,
		FeeBps:        s.FeeBps,
		TotalVolume:   s.TotalVolume,
		TotalMarkets:  s.TotalMarkets,
		InitializedAt: s.InitializedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// parsePrediction maps the wire values "up"/"down" (and bool aliases) onto
// the internal bool.
func parsePrediction(s string) (bool, bool) {
	switch s {
	case "up", "true":
		return true, true
	case "down", "false":
		return false, true
	default:
		return false, false
	}
}
