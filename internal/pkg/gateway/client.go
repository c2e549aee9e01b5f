// Package gateway talks to the payment gateway that collects topup payments.
// Only order lookups are needed: the gateway is always re-queried, so a
// status pushed by a webhook is never trusted on its own.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound means the gateway does not know the order id.
	ErrOrderNotFound = errors.New("gateway order not found")
	// ErrUnavailable covers transport failures, non-2xx answers and
	// malformed payloads. Callers may retry.
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// StatusCaptured is the only status that moves money into a wallet.
const StatusCaptured = "CAPTURED"

// Config holds payment gateway configuration
type Config struct {
	BaseURL   string
	ClientID  string
	SecretKey string
	Timeout   time.Duration
}

// Order is the gateway view of a topup payment.
type Order struct {
	ID         string
	Status     string
	Amount     int64
	Currency   string
	CustomerID uuid.UUID
}

// IsCaptured reports whether the payment has been collected.
func (o *Order) IsCaptured() bool {
	return strings.EqualFold(o.Status, StatusCaptured)
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency_code"`
	} `json:"amount"`
	CustomerID string `json:"customer_id"`
}

// Client represents the payment gateway API client
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates new gateway API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// CheckOrderStatus fetches the current state of an order.
func (c *Client) CheckOrderStatus(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base url is empty", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v1/orders/" + url.PathEscape(orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.SetBasicAuth(c.config.ClientID, c.config.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrOrderNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrUnavailable, resp.StatusCode, truncate(body, 512))
	}

	var raw orderResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode order: %w", ErrUnavailable, err)
	}

	return raw.toOrder()
}

func (r orderResponse) toOrder() (*Order, error) {
	order := &Order{
		ID:       r.ID,
		Status:   strings.ToUpper(strings.TrimSpace(r.Status)),
		Currency: r.Amount.Currency,
	}

	if r.Amount.Value != "" {
		amount, err := decimal.NewFromString(r.Amount.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q: %w", ErrUnavailable, r.Amount.Value, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: negative amount %s", ErrUnavailable, r.Amount.Value)
		}
		// VND has no minor unit
		order.Amount = amount.Truncate(0).IntPart()
	}

	if r.CustomerID != "" {
		customerID, err := uuid.Parse(r.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: customer id %q: %w", ErrUnavailable, r.CustomerID, err)
		}
		order.CustomerID = customerID
	}

	return order, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
