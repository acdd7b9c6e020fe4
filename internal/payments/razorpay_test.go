package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Amount != 9900 || req.Currency != "INR" || req.Receipt != "acct_123" {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(orderResponse{
			ID: "order_abc", Amount: req.Amount, Currency: req.Currency, Status: "created",
		})
	}))
	defer srv.Close()

	c := NewClient("rzp_key", "rzp_secret", srv.URL, time.Second)
	id, err := c.CreateOrder(context.Background(), 9900, "INR", "acct_123")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if id != "order_abc" {
		t.Fatalf("order id = %q", id)
	}
}

func TestClient_CreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", "s", srv.URL, time.Second)
	_, err := c.CreateOrder(context.Background(), 1, "INR", "r")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "amount exceeds maximum") {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_CreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("k", "s", srv.URL, time.Second)
	if _, err := c.CreateOrder(context.Background(), 100, "INR", "r"); err == nil {
		t.Fatal("expected error for empty order id")
	}
}
