package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feedgod/arena/internal/domain"
)

func TestWriteDomainError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidPosition, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrMarketAlreadyResolved, http.StatusConflict},
		{domain.ErrAlreadyClaimed, http.StatusConflict},
		{domain.ErrLockHeld, http.StatusConflict},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{domain.ErrBettingClosed, http.StatusUnprocessableEntity},
		{domain.ErrResolutionTimeNotReached, http.StatusUnprocessableEntity},
		{domain.ErrMarketNotResolved, http.StatusUnprocessableEntity},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrBetTooSmall, http.StatusBadRequest},
		{domain.ErrInvalidFeeBps, http.StatusBadRequest},
		{fmt.Errorf("database on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}

func TestWriteDomainError_WrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("settlement: claim alice market 3: %w", domain.ErrAlreadyClaimed))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWriteDomainError_UnknownErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("pgx: connection refused to 10.0.0.7"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}

func TestParsePrediction(t *testing.T) {
	up, ok := parsePrediction("up")
	assert.True(t, ok)
	assert.True(t, up)

	down, ok := parsePrediction("down")
	assert.True(t, ok)
	assert.False(t, down)

	_, ok = parsePrediction("sideways")
	assert.False(t, ok)
}

func TestParseListOpts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/positions?limit=20&offset=40", nil)
	opts := parseListOpts(req)
	assert.Equal(t, 20, opts.Limit)
	assert.Equal(t, 40, opts.Offset)

	// Defaults and the cap.
	req = httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	opts = parseListOpts(req)
	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)

	req = httptest.NewRequest(http.MethodGet, "/api/positions?limit=9000", nil)
	opts = parseListOpts(req)
	assert.Equal(t, 500, opts.Limit)
}
