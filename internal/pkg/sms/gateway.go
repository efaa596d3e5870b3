package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/atomic"
)

var (
	// ErrGatewayURLRequired is returned when the gateway base URL is missing.
	ErrGatewayURLRequired = errors.New("sms gateway url is required")
	// ErrGatewayNoRecipient is returned when Message.To is empty.
	ErrGatewayNoRecipient = errors.New("no recipient provided")
)

// Gateway is an SMS implementation backed by a JSON-over-HTTP provider.
type Gateway struct {
	url      string
	apiKey   string
	sender   string
	client   *http.Client
	failures atomic.Int64
}

// GatewayConfig configures the Gateway implementation.
type GatewayConfig struct {
	// URL is the provider's message endpoint.
	URL string
	// APIKey authenticates requests against the provider.
	APIKey string
	// Sender is the sender ID shown to recipients.
	Sender string
	// Timeout bounds a single delivery attempt; defaults to 10s.
	Timeout time.Duration
}

// NewGateway constructs an HTTP gateway SMS sender.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, ErrGatewayURLRequired
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Gateway{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		sender: cfg.Sender,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type gatewayRequest struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	Sender string `json:"sender,omitempty"`
}

// Send delivers a message through the provider endpoint.
func (g *Gateway) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrGatewayNoRecipient
	}

	payload, err := json.Marshal(gatewayRequest{To: msg.To, Body: msg.Body, Sender: g.sender})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.failures.Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.failures.Inc()
		return fmt.Errorf("sms gateway responded with status %d", resp.StatusCode)
	}

	g.failures.Store(0)
	return nil
}

// Failures returns the number of consecutive failed deliveries.
func (g *Gateway) Failures() int64 {
	return g.failures.Load()
}

// Close implements io.Closer for interface compatibility.
func (g *Gateway) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
