package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/types"
)

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Code    int
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Is lets callers match gateway 404s and 400s against the domain sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case types.ErrNotFound:
		return e.Code == http.StatusNotFound
	case types.ErrValidation:
		return e.Code == http.StatusBadRequest
	}
	return false
}

// Client talks to the trading gateway over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	useLogging bool
	retry      RetryConfig
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithLogging enables request/response logging through the global logger.
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithRetry overrides DefaultRetryConfig.
func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// RetryConfig controls retries of rate-limited (429) and 5xx responses.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig allows three attempts backing off from 250ms to 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 250 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// NewClient returns a client for the gateway at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
		retry:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Portfolio fetches the portfolio snapshot for userID.
func (c *Client) Portfolio(ctx context.Context, userID string) (types.PortfolioSnapshot, error) {
	var out types.PortfolioSnapshot
	err := c.do(ctx, http.MethodGet, "/api/portfolio/"+url.PathEscape(userID), nil, &out)
	return out, err
}

// MarketData returns the latest point per symbol; no symbols means the
// server's configured set.
func (c *Client) MarketData(ctx context.Context, symbols ...string) ([]types.MarketDataPoint, error) {
	path := "/api/market-data"
	if len(symbols) > 0 {
		path += "?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	}
	var out []types.MarketDataPoint
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Indicators fetches indicator values for symbol.
func (c *Client) Indicators(ctx context.Context, symbol string) (types.Indicators, error) {
	var out types.Indicators
	err := c.do(ctx, http.MethodGet, "/api/market-data/"+url.PathEscape(symbol)+"/indicators", nil, &out)
	return out, err
}

// Strategies lists strategies.
func (c *Client) Strategies(ctx context.Context) ([]types.Strategy, error) {
	var out []types.Strategy
	err := c.do(ctx, http.MethodGet, "/api/strategies", nil, &out)
	return out, err
}

// Signals lists recent signals. A limit <= 0 uses the server default.
func (c *Client) Signals(ctx context.Context, limit int) ([]types.Signal, error) {
	path := "/api/signals"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []types.Signal
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateOrder submits a new order.
func (c *Client) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	var out types.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", req, &out)
	return out, err
}

// UpdateOrderStatus sets the status of orderID.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) (types.Order, error) {
	var out types.Order
	body := map[string]types.OrderStatus{"status": status}
	err := c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(orderID), body, &out)
	return out, err
}

// GenerateSignal asks the server for a signal on symbol.
func (c *Client) GenerateSignal(ctx context.Context, symbol, strategy string) (types.Signal, error) {
	var out types.Signal
	body := map[string]string{"symbol": symbol}
	if strategy != "" {
		body["strategy"] = strategy
	}
	err := c.do(ctx, http.MethodPost, "/api/signals/generate", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	var respBody []byte
	attempt := 0
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		b, err := c.roundTrip(ctx, method, path, payload)
		if err != nil {
			if retryable(err) {
				c.logWarn(ctx, "Request failed, retrying", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		respBody = b
		return nil
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// backoff is exponential from InitialWait, capped at MaxWait, with at most
// MaxAttempts-1 retries.
func (c *Client) backoff() retry.Backoff {
	base := c.retry.InitialWait
	if base <= 0 {
		base = DefaultRetryConfig().InitialWait
	}
	b := retry.NewExponential(base)
	if c.retry.MaxWait > 0 {
		b = retry.WithCappedDuration(c.retry.MaxWait, b)
	}
	retries := c.retry.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logDebug(ctx, "HTTP Response",
		"method", method,
		"path", path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"bodySize", len(body))

	if httpResp.StatusCode >= 400 {
		se := &StatusError{Code: httpResp.StatusCode, Body: string(body)}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &msg) == nil {
			se.Message = msg.Error
		}
		return nil, se
	}
	return body, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return false
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}
