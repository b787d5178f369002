// Package payments is the outbound gateway to the hosted payment processor.
// It creates checkout sessions; settlement always arrives asynchronously over
// the webhook, never through this client.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/citypages/billing/pkg/config"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionMode mirrors the processor's checkout modes.
type SessionMode string

const (
	ModePayment      SessionMode = "payment"
	ModeSubscription SessionMode = "subscription"
)

// SessionRequest describes one checkout session to create. Metadata is
// round-tripped verbatim into the completion webhook and is the only state
// shared across the boundary.
type SessionRequest struct {
	Mode          SessionMode       `json:"mode"`
	ProductName   string            `json:"product_name,omitempty"`
	AmountCents   int64             `json:"amount_cents,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	PriceID       string            `json:"price_id,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// Client is what the checkout services depend on; tests substitute a fake.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	log     *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) Client {
	timeout := cfg.Payments.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: cfg.Payments.BaseURL,
		apiKey:  cfg.Payments.APIKey,
		hc:      &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *httpClient) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	if req == nil {
		return nil, errors.New("req is nil")
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", req, &s); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &s, nil
}

func (c *httpClient) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+id, nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get checkout session %s: %w", id, err)
	}
	return &s, nil
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *httpClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, &ae); err == nil && ae.Error.Message != "" {
			return fmt.Errorf("processor returned %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("processor returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
