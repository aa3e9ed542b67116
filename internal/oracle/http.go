// Package oracle reads market measurements from an external price feed
// aggregator over HTTP.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/feedgod/arena/internal/domain"
)

// ClientConfig holds connection parameters for the feed client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// Client implements domain.PriceOracle against a feed aggregator REST API.
type Client struct {
	http *resty.Client
}

// NewClient creates a feed client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	if cfg.APIKey != "" {
		httpc.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &Client{http: httpc}
}

// feedResponse is the aggregator's latest-value payload. Value is a decimal
// string because feed values exceed 64 bits.
type feedResponse struct {
	Feed      string `json:"feed"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Read fetches the latest aggregated value for the feed. It returns
// domain.ErrInvalidOracle when the aggregator does not know the feed or
// returns a malformed value.
func (c *Client) Read(ctx context.Context, feed string) (*big.Int, error) {
	if feed == "" {
		return nil, domain.ErrInvalidOracle
	}

	var result feedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get("/v1/feeds/" + url.PathEscape(feed) + "/latest")
	if err != nil {
		return nil, fmt.Errorf("oracle: read feed %s: %w", feed, err)
	}

	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("oracle: read feed %s: %w", feed, domain.ErrInvalidOracle)
	}
	if resp.IsError() {
		msg := result.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("oracle: read feed %s: aggregator returned %d: %s", feed, resp.StatusCode(), msg)
	}

	value, ok := new(big.Int).SetString(result.Value, 10)
	if !ok {
		return nil, fmt.Errorf("oracle: read feed %s: malformed value %q: %w", feed, result.Value, domain.ErrInvalidOracle)
	}
	return value, nil
}

// Compile-time interface check.
var _ domain.PriceOracle = (*Client)(nil)
