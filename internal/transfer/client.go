// Package transfer is the HTTP client for the custody transfer gateway. All
// value movement (deposits into escrow, withdrawals, fee sweeps) goes through
// the gateway; the engine itself only keeps ledger entries.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/feedgod/arena/internal/crypto"
	"github.com/feedgod/arena/internal/domain"
)

const transfersPath = "/v1/transfers"

// ClientConfig holds connection parameters for the gateway client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Secret     string
	Timeout    time.Duration
	RetryCount int
}

// Client implements domain.TokenMover against the gateway's REST API.
// Requests are signed with HMAC-SHA256 over timestamp, method, path and body.
type Client struct {
	http *resty.Client
	auth crypto.HMACAuth
}

// NewClient creates a gateway client. Retries are safe because the gateway
// deduplicates transfers by reference id.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		http: httpc,
		auth: crypto.HMACAuth{Key: cfg.APIKey, Secret: cfg.Secret},
	}
}

type transferRequest struct {
	Reference  string `json:"reference"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
	Authorizer string `json:"authorizer"`
}

type transferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Move executes a custody transfer and waits for the gateway to confirm it.
// Each call carries a fresh reference id; retries of the same call re-send
// the same reference, so the gateway can deduplicate them.
func (c *Client) Move(ctx context.Context, from, to string, amount uint64, authorizer string) error {
	body, err := json.Marshal(transferRequest{
		Reference:  uuid.New().String(),
		From:       from,
		To:         to,
		Amount:     amount,
		Authorizer: authorizer,
	})
	if err != nil {
		return fmt.Errorf("transfer: marshal request: %w", err)
	}

	var result transferResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.auth.Headers("POST", transfersPath, string(body))).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(transfersPath)
	if err != nil {
		return fmt.Errorf("transfer: move %s -> %s: %w", from, to, err)
	}

	if resp.IsError() {
		msg := result.Error
		if msg == "" {
			msg = resp.Status()
		}
		if resp.StatusCode() == 402 || resp.StatusCode() == 422 {
			return fmt.Errorf("transfer: move %s -> %s: %s: %w", from, to, msg, domain.ErrInsufficientBalance)
		}
		return fmt.Errorf("transfer: move %s -> %s: gateway returned %d: %s", from, to, resp.StatusCode(), msg)
	}

	if result.Status != "" && result.Status != "confirmed" {
		return fmt.Errorf("transfer: move %s -> %s: unexpected status %q", from, to, result.Status)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TokenMover = (*Client)(nil)
