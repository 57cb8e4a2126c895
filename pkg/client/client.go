// pkg/client/client.go

// Package client is a Go client for the BookCourier API. Reads are keyed so
// that overlapping refreshes of the same view settle latest-wins: a slow
// earlier response can never overwrite the data a later request produced.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrStaleResponse = errors.New("superseded by a newer request")

// Client talks to a BookCourier server on behalf of one signed-in user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu          sync.Mutex
	generations map[string]uint64
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: timeout},
		generations: map[string]uint64{},
	}
}

// begin marks a new request generation for the key and returns it.
func (c *Client) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key]
}

// current reports whether gen is still the newest generation for the key.
func (c *Client) current(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key] == gen
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload, out interface{}) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
		}
		if apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListBooks fetches a filtered page of the storefront listing. Overlapping
// calls with the same filter key settle latest-wins; a superseded call
// returns ErrStaleResponse instead of its (outdated) page.
func (c *Client) ListBooks(ctx context.Context, filter Filter) (*Page, error) {
	const key = "books"
	gen := c.begin(key)

	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/v1/books"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	page := &Page{}
	if err := c.get(ctx, path, page); err != nil {
		return nil, err
	}
	if !c.current(key, gen) {
		return nil, ErrStaleResponse
	}
	return page, nil
}

func (c *Client) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book := &Book{}
	if err := c.get(ctx, "/api/v1/books/"+id.String(), book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListOrders fetches the signed-in user's orders, latest-wins.
func (c *Client) ListOrders(ctx context.Context) ([]*Order, error) {
	const key = "orders"
	gen := c.begin(key)

	var out []*Order
	if err := c.get(ctx, "/api/v1/orders", &out); err != nil {
		return nil, err
	}
	if !c.current(key, gen) {
		return nil, ErrStaleResponse
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	placed := &Order{}
	if err := c.send(ctx, http.MethodPost, "/api/v1/orders", order, placed); err != nil {
		return nil, err
	}
	return placed, nil
}

func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	cancelled := &Order{}
	if err := c.send(ctx, http.MethodPatch, "/api/v1/orders/"+id.String()+"/cancel", nil, cancelled); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// StartCheckout opens a payment session for the order and returns the
// hosted page URL to navigate to.
func (c *Client) StartCheckout(ctx context.Context, id uuid.UUID) (string, error) {
	var session struct {
		URL string `json:"url"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/v1/orders/"+id.String()+"/checkout", nil, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

// ConfirmPayment verifies the checkout session after the provider redirect.
func (c *Client) ConfirmPayment(ctx context.Context, sessionID string) (*Receipt, error) {
	receipt := &Receipt{}
	path := "/api/v1/payments/success?session_id=" + url.QueryEscape(sessionID)
	if err := c.send(ctx, http.MethodPatch, path, nil, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
