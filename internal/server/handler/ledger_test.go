package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/server/middleware"
)

type stubLedger struct {
	account domain.UserAccount
	err     error

	gotUser   string
	gotAmount uint64
}

func (s *stubLedger) Deposit(ctx context.Context, user string, amount uint64) (domain.UserAccount, error) {
	s.gotUser, s.gotAmount = user, amount
	return s.account, s.err
}

func (s *stubLedger) Withdraw(ctx context.Context, user string, amount uint64) (domain.UserAccount, error) {
	s.gotUser, s.gotAmount = user, amount
	return s.account, s.err
}

func (s *stubLedger) GetAccount(ctx context.Context, user string) (domain.UserAccount, error) {
	s.gotUser = user
	return s.account, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeposit_UsesAuthenticatedIdentity(t *testing.T) {
	stub := &stubLedger{account: domain.UserAccount{User: "alice", Balance: 1_500_000}}
	h := NewLedgerHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/deposits",
		strings.NewReader(`{"user":"mallory","amount":1500000}`))
	req = req.WithContext(middleware.WithIdentity(req.Context(), "alice"))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// The body's user claim is ignored when an identity is authenticated.
	assert.Equal(t, "alice", stub.gotUser)
	assert.Equal(t, uint64(1_500_000), stub.gotAmount)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.5", resp["balance_formatted"])
}

func TestDeposit_AmountTokensPrecedence(t *testing.T) {
	stub := &stubLedger{}
	h := NewLedgerHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/deposits",
		strings.NewReader(`{"user":"alice","amount":1,"amount_tokens":"2.5"}`))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(2_500_000), stub.gotAmount)
}

func TestDeposit_MissingUser(t *testing.T) {
	h := NewLedgerHandler(&stubLedger{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/deposits",
		strings.NewReader(`{"amount":1000000}`))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	stub := &stubLedger{err: domain.ErrInsufficientBalance}
	h := NewLedgerHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/withdrawals",
		strings.NewReader(`{"user":"alice","amount":1000000}`))
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestGetAccount_NotFound(t *testing.T) {
	stub := &stubLedger{err: domain.ErrNotFound}
	h := NewLedgerHandler(stub, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/accounts/{id}", h.GetAccount)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/nobody", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nobody", stub.gotUser)
}
