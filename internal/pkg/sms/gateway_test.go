package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGatewayRequiresURL(t *testing.T) {
	_, err := NewGateway(GatewayConfig{})

	if !errors.Is(err, ErrGatewayURLRequired) {
		t.Errorf("error = %v, want ErrGatewayURLRequired", err)
	}
}

func TestGatewaySend(t *testing.T) {
	var got gatewayRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL, APIKey: "key-123", Sender: "GoProof"})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	err = gw.Send(context.Background(), Message{To: "+6281234567890", Body: "your code is 482913"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if auth != "Bearer key-123" {
		t.Errorf("authorization header = %q", auth)
	}
	if got.To != "+6281234567890" || got.Sender != "GoProof" {
		t.Errorf("request payload = %+v", got)
	}
}

func TestGatewaySendNoRecipient(t *testing.T) {
	gw, err := NewGateway(GatewayConfig{URL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	if err := gw.Send(context.Background(), Message{Body: "hi"}); !errors.Is(err, ErrGatewayNoRecipient) {
		t.Errorf("error = %v, want ErrGatewayNoRecipient", err)
	}
}

func TestGatewayFailureCounter(t *testing.T) {
	status := http.StatusBadGateway
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	msg := Message{To: "+6281234567890", Body: "hi"}
	for range 2 {
		if err := gw.Send(context.Background(), msg); err == nil {
			t.Fatal("expected an error for a non-2xx response")
		}
	}
	if got := gw.Failures(); got != 2 {
		t.Errorf("failures = %d, want 2", got)
	}

	// One success resets the consecutive counter.
	status = http.StatusOK
	if err := gw.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := gw.Failures(); got != 0 {
		t.Errorf("failures = %d, want 0 after success", got)
	}
}
