package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2023-08-01"

// Client is a minimal Cashfree PG client covering order creation and status
// lookup.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// Order is the provider-side handle the SPA needs to open checkout and the
// backend needs to verify payment.
type Order struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
	Status           string `json:"order_status"`
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateOrder registers a new order with Cashfree. Amounts are passed in
// minor units and converted to the currency value Cashfree expects.
func (c *Client) CreateOrder(ctx context.Context, orderID string, amountMinorUnits int, currency string, customerID string) (*Order, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("cashfree credentials are not configured")
	}

	payload := map[string]any{
		"order_id":       orderID,
		"order_amount":   float64(amountMinorUnits) / 100,
		"order_currency": currency,
		"customer_details": map[string]string{
			"customer_id": customerID,
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pg/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build cashfree request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cashfree request: %w", err)
	}
	defer resp.Body.Close()

	var parsed Order
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode cashfree response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cashfree error: status=%d order=%s", resp.StatusCode, orderID)
	}
	if parsed.OrderID == "" || parsed.PaymentSessionID == "" {
		return nil, fmt.Errorf("invalid cashfree response (missing order id or payment session)")
	}
	if parsed.Status == "" {
		parsed.Status = "ACTIVE"
	}
	return &parsed, nil
}

// GetOrder fetches current order status; "PAID" means the payment settled.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pg/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("build cashfree request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cashfree request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cashfree error: status=%d order=%s", resp.StatusCode, orderID)
	}
	var parsed Order
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode cashfree response: %w", err)
	}
	if parsed.OrderID == "" {
		return nil, fmt.Errorf("invalid cashfree response (missing order id)")
	}
	return &parsed, nil
}

// Paid reports whether an order status means the payment settled.
func Paid(status string) bool {
	return strings.EqualFold(status, "PAID")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("Accept", "application/json")
}
