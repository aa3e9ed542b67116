package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/feedgod/arena/internal/domain"
)

// LedgerService defines what the ledger handler needs from the service layer.
type LedgerService interface {
	Deposit(ctx context.Context, user string, amount uint64) (domain.UserAccount, error)
	Withdraw(ctx context.Context, user string, amount uint64) (domain.UserAccount, error)
	GetAccount(ctx context.Context, user string) (domain.UserAccount, error)
}

// LedgerHandler serves deposit, withdrawal and account endpoints.
type LedgerHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledger LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// movementRequest is the body for deposits and withdrawals. Amount accepts
// raw fixed-point units; AmountTokens accepts a decimal token quantity like
// "12.5" and takes precedence when set.
type movementRequest struct {
	User         string `json:"user,omitempty"`
	Amount       uint64 `json:"amount,omitempty"`
	AmountTokens string `json:"amount_tokens,omitempty"`
}

func (req *movementRequest) amount() (uint64, error) {
	if req.AmountTokens != "" {
		return domain.ParseAmount(req.AmountTokens)
	}
	return req.Amount, nil
}

// Deposit credits the caller's account after escrowing the funds.
// POST /api/deposits
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := identity(r, req.User)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.ledger.Deposit(r.Context(), user, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: deposit failed",
			slog.String("user", user),
			slog.Uint64("amount", amount),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

// Withdraw debits the caller's account and releases escrowed funds.
// POST /api/withdrawals
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := identity(r, req.User)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.ledger.Withdraw(r.Context(), user, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: withdraw failed",
			slog.String("user", user),
			slog.Uint64("amount", amount),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

// GetAccount returns an account's balance and lifetime statistics.
// GET /api/accounts/{id}
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("id")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing account id")
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountJSON(account))
}
