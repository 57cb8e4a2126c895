// internal/payments/client_test.go
package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "order-1", req.OrderID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_123", URL: "https://pay.example.com/cs_123"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "sk_test"})
	session, err := client.CreateSession(context.Background(), CheckoutRequest{
		OrderID:   "order-1",
		BookTitle: "Pride and Prejudice",
		Amount:    1200,
		Currency:  "BDT",
		Email:     "reader@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.example.com/cs_123", session.URL)
	assert.Equal(t, "Bearer sk_test", gotAuth)
}

func TestCreateSessionRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_123"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := client.CreateSession(context.Background(), CheckoutRequest{OrderID: "order-1"})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestVerifySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
		json.NewEncoder(w).Encode(Verification{Paid: true, TransactionID: "txn_789", Amount: 1200})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	verification, err := client.VerifySession(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.True(t, verification.Paid)
	assert.Equal(t, "txn_789", verification.TransactionID)
	assert.Equal(t, "cs_123", verification.SessionID)
}

func TestVerifySessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := client.VerifySession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
