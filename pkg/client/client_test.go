// pkg/client/client_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBooksSendsFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/books", r.URL.Path)
		assert.Equal(t, "go", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(Page{TotalBooks: 1, TotalPages: 1, Page: 2})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Token: "tok"})
	page, err := c.ListBooks(context.Background(), Filter{Search: "go", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalBooks)
}

// A slow response from an earlier listing request must lose to the response
// of a request issued after it.
func TestListBooksDiscardsStaleResponse(t *testing.T) {
	slow := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "slow" {
			<-slow
			json.NewEncoder(w).Encode(Page{TotalBooks: 111})
			return
		}
		json.NewEncoder(w).Encode(Page{TotalBooks: 222})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})

	var wg sync.WaitGroup
	wg.Add(1)
	var slowPage *Page
	var slowErr error
	go func() {
		defer wg.Done()
		slowPage, slowErr = c.ListBooks(context.Background(), Filter{Search: "slow"})
	}()

	// Let the slow request reach the server, then issue a newer one.
	time.Sleep(50 * time.Millisecond)
	fast, err := c.ListBooks(context.Background(), Filter{Search: "fast"})
	require.NoError(t, err)
	assert.Equal(t, 222, fast.TotalBooks)

	close(slow)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrStaleResponse)
	assert.Nil(t, slowPage)
}

// The wire types declared in this package must track the field names the
// server emits, since importers cannot reach the server's internal types.
func TestPlaceOrderRoundTripsWireFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "bookId")
		assert.Contains(t, payload, "phone")
		assert.Contains(t, payload, "address")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"id": "7b5dfd45-95a3-4e2f-9c3b-2b0f3c9f2a11",
			"bookId": "` + payload["bookId"].(string) + `",
			"bookTitle": "Learning Go",
			"price": 29.99,
			"userEmail": "buyer@example.com",
			"status": "pending",
			"paymentStatus": "unpaid"
		}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	placed, err := c.PlaceOrder(context.Background(), OrderRequest{
		BookID:  uuid.New(),
		Phone:   "01700000000",
		Address: "12 Reader Lane, Dhaka",
	})
	require.NoError(t, err)
	assert.Equal(t, "Learning Go", placed.BookTitle)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, "unpaid", placed.PaymentStatus)
	assert.Equal(t, "buyer@example.com", placed.UserEmail)
}

func TestClientSurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "auth/email-already-in-use",
			"message": "This email is already registered!",
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.ListOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "This email is already registered!")
}

func TestConfirmPaymentEscapesSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cs test&1", r.URL.Query().Get("session_id"))
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "transactionId": "txn_1"})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	receipt, err := c.ConfirmPayment(context.Background(), "cs test&1")
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, "txn_1", receipt.TransactionID)
}
