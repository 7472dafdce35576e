// Package client is a Go client for the star notary HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"star-notary/internal/api"
	"star-notary/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Client calls the notary API as one caller.
type Client struct {
	baseURL     string
	client      *http.Client
	caller      domain.Address
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// Option configures Client.
type Option func(*Client)

// WithCaller sets the account sent in the X-Caller header.
func WithCaller(a domain.Address) Option {
	return func(c *Client) {
		c.caller = a
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for reads.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventsURL returns the WebSocket URL of the event stream.
func (c *Client) EventsURL() string {
	u := c.baseURL + "/v1/events"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do performs one API call. Only GETs are retried, with exponential backoff:
// a mutation that reached the server must not be replayed.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if !c.caller.IsZero() {
			req.Header.Set(api.CallerHeader, c.caller.String())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
			var e api.ErrorResponse
			if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
				apiErr.Code = e.Code
				apiErr.Message = e.Error
			}
			if retryable(resp.StatusCode) {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func idPath(format string, id domain.TokenID) string {
	return fmt.Sprintf(format, id.String())
}

// Token returns the collection name and symbol.
func (c *Client) Token(ctx context.Context) (*api.TokenResponse, error) {
	var out api.TokenResponse
	if err := c.do(ctx, http.MethodGet, "/v1/token", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStar mints a star to the caller.
func (c *Client) CreateStar(ctx context.Context, req api.CreateStarRequest) (*domain.StarInfo, error) {
	var out domain.StarInfo
	if err := c.do(ctx, http.MethodPost, "/v1/stars", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StarInfo returns a star's name, story and prefixed coordinates.
func (c *Client) StarInfo(ctx context.Context, id domain.TokenID) (*domain.StarInfo, error) {
	var out domain.StarInfo
	if err := c.do(ctx, http.MethodGet, idPath("/v1/stars/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StarExists reports whether the coordinates are registered.
func (c *Client) StarExists(ctx context.Context, ra, dec, mag string) (bool, error) {
	q := url.Values{"ra": {ra}, "dec": {dec}, "mag": {mag}}
	var out api.ExistsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/stars/exists?"+q.Encode(), nil, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// PutUpForSale lists the caller's star.
func (c *Client) PutUpForSale(ctx context.Context, id domain.TokenID, price domain.Lamports) error {
	return c.do(ctx, http.MethodPut, idPath("/v1/stars/%s/sale", id), api.PriceRequest{Price: &price}, nil)
}

// RemoveFromSale withdraws the caller's listing.
func (c *Client) RemoveFromSale(ctx context.Context, id domain.TokenID) error {
	return c.do(ctx, http.MethodDelete, idPath("/v1/stars/%s/sale", id), nil, nil)
}

// Price returns the asking price of a listed star.
func (c *Client) Price(ctx context.Context, id domain.TokenID) (domain.Lamports, error) {
	var out api.PriceResponse
	if err := c.do(ctx, http.MethodGet, idPath("/v1/stars/%s/sale", id), nil, &out); err != nil {
		return 0, err
	}
	return out.Price, nil
}

// Buy purchases a star for the caller.
func (c *Client) Buy(ctx context.Context, id domain.TokenID, payment domain.Lamports) (*api.SaleResponse, error) {
	var out api.SaleResponse
	if err := c.do(ctx, http.MethodPost, idPath("/v1/stars/%s/buy", id), api.BuyRequest{Payment: &payment}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sales returns a star's sale history.
func (c *Client) Sales(ctx context.Context, id domain.TokenID) ([]api.SaleResponse, error) {
	var out api.ListSalesResponse
	if err := c.do(ctx, http.MethodGet, idPath("/v1/stars/%s/sales", id), nil, &out); err != nil {
		return nil, err
	}
	return out.Sales, nil
}

// Listings returns every active offer.
func (c *Client) Listings(ctx context.Context) ([]api.ListingResponse, error) {
	var out api.ListListingsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/listings", nil, &out); err != nil {
		return nil, err
	}
	return out.Listings, nil
}

// Owner returns the owner of a token.
func (c *Client) Owner(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	var out api.OwnerResponse
	if err := c.do(ctx, http.MethodGet, idPath("/v1/tokens/%s/owner", id), nil, &out); err != nil {
		return domain.ZeroAddress, err
	}
	return out.Owner, nil
}

// Transfer moves a token from one account to another on behalf of the caller.
func (c *Client) Transfer(ctx context.Context, id domain.TokenID, from, to domain.Address) error {
	return c.do(ctx, http.MethodPost, idPath("/v1/tokens/%s/transfer", id), api.TransferRequest{From: from, To: to}, nil)
}

// Approve sets the approved account of a token.
func (c *Client) Approve(ctx context.Context, id domain.TokenID, to domain.Address) error {
	return c.do(ctx, http.MethodPost, idPath("/v1/tokens/%s/approve", id), api.ApproveRequest{To: to}, nil)
}

// Approved returns the approved account of a token.
func (c *Client) Approved(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	var out api.ApprovedResponse
	if err := c.do(ctx, http.MethodGet, idPath("/v1/tokens/%s/approved", id), nil, &out); err != nil {
		return domain.ZeroAddress, err
	}
	return out.Approved, nil
}

// SetOperator grants or revokes an operator for the caller's tokens.
func (c *Client) SetOperator(ctx context.Context, operator domain.Address, approved bool) error {
	return c.do(ctx, http.MethodPut, "/v1/operators/"+operator.String(), api.OperatorRequest{Approved: approved}, nil)
}

// TokenBalance returns how many tokens owner holds.
func (c *Client) TokenBalance(ctx context.Context, owner domain.Address) (uint64, error) {
	var out api.TokenBalanceResponse
	if err := c.do(ctx, http.MethodGet, "/v1/owners/"+owner.String()+"/tokens", nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Account returns the native-currency balance of an account.
func (c *Client) Account(ctx context.Context, account domain.Address) (domain.Lamports, error) {
	var out api.AccountResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+account.String(), nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Deposit funds an account. The caller must be the faucet.
func (c *Client) Deposit(ctx context.Context, account domain.Address, amount domain.Lamports) (domain.Lamports, error) {
	var out api.AccountResponse
	if err := c.do(ctx, http.MethodPost, "/v1/accounts/"+account.String()+"/deposit", api.DepositRequest{Amount: &amount}, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}
