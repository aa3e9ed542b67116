package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedgod/arena/internal/domain"
)

// recordingGateway captures every transfer request body it receives.
type recordingGateway struct {
	mu     sync.Mutex
	bodies [][]byte

	// firstDelay stalls the first request past the client timeout.
	firstDelay time.Duration
}

func (g *recordingGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		g.mu.Lock()
		g.bodies = append(g.bodies, body)
		first := len(g.bodies) == 1
		g.mu.Unlock()

		if first && g.firstDelay > 0 {
			time.Sleep(g.firstDelay)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t-1","status":"confirmed"}`))
	}
}

func (g *recordingGateway) requests(t *testing.T) []transferRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]transferRequest, len(g.bodies))
	for i, b := range g.bodies {
		require.NoError(t, json.Unmarshal(b, &out[i]))
	}
	return out
}

func TestMove_SendsReference(t *testing.T) {
	gw := &recordingGateway{}
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "engine", Secret: "s3cret"})

	err := c.Move(context.Background(), "alice", "escrow", 1_000_000, "alice")
	require.NoError(t, err)

	reqs := gw.requests(t)
	require.Len(t, reqs, 1)
	assert.Equal(t, "alice", reqs[0].From)
	assert.Equal(t, "escrow", reqs[0].To)
	assert.EqualValues(t, 1_000_000, reqs[0].Amount)

	_, err = uuid.Parse(reqs[0].Reference)
	assert.NoError(t, err, "reference must be a valid uuid")
}

func TestMove_ReferenceIsFreshPerCall(t *testing.T) {
	gw := &recordingGateway{}
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "engine", Secret: "s3cret"})

	require.NoError(t, c.Move(context.Background(), "alice", "escrow", 1_000_000, "alice"))
	require.NoError(t, c.Move(context.Background(), "alice", "escrow", 1_000_000, "alice"))

	reqs := gw.requests(t)
	require.Len(t, reqs, 2)
	assert.NotEqual(t, reqs[0].Reference, reqs[1].Reference)
}

func TestMove_RetryReusesReference(t *testing.T) {
	gw := &recordingGateway{firstDelay: 500 * time.Millisecond}
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		APIKey:     "engine",
		Secret:     "s3cret",
		Timeout:    100 * time.Millisecond,
		RetryCount: 1,
	})

	err := c.Move(context.Background(), "alice", "escrow", 1_000_000, "alice")
	require.NoError(t, err)

	reqs := gw.requests(t)
	require.Len(t, reqs, 2, "first attempt times out, retry lands")

	require.NotEmpty(t, reqs[0].Reference)
	assert.Equal(t, reqs[0].Reference, reqs[1].Reference,
		"the retried request must carry the original reference so the gateway can deduplicate it")
}

func TestMove_InsufficientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient funds"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "engine", Secret: "s3cret"})

	err := c.Move(context.Background(), "alice", "escrow", 1_000_000, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestMove_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t-2","status":"pending"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "engine", Secret: "s3cret"})

	err := c.Move(context.Background(), "escrow", "bob", 2_000_000, "escrow")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "pending")
}
