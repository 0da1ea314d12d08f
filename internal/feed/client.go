// internal/feed/client.go
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

const (
	DefaultURL               = "https://api.dexscreener.com/token-profiles/latest/v1"
	DefaultRequestsPerMinute = 60
	requestTimeout           = 10 * time.Second
	maxBodySize              = 16 << 20
)

// ErrBadStatus is returned for non-2xx responses.
var ErrBadStatus = errors.New("unexpected feed status")

// Source returns the latest list of token snapshots.
type Source interface {
	Fetch(ctx context.Context) ([]domain.TokenSnapshot, error)
}

// ClientConfig configures the HTTP feed client.
type ClientConfig struct {
	URL               string
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client polls the market-data endpoint over HTTP.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a rate-limited feed client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		url:     cfg.URL,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:  logger.Named("feed"),
	}
}

// Fetch performs one GET and decodes the body.
func (c *Client) Fetch(ctx context.Context) ([]domain.TokenSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	tokens, err := Decode(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Feed polled", zap.Int("tokens", len(tokens)))
	return tokens, nil
}
