// internal/payments/provider.go

// Package payments talks to the hosted checkout provider. The provider owns
// the payment UI; this package only opens checkout sessions and verifies
// their outcome.
package payments

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrProvider        = errors.New("payment provider error")
)

// CheckoutRequest describes one payment attempt for one order.
type CheckoutRequest struct {
	OrderID     string  `json:"orderId"`
	BookTitle   string  `json:"bookTitle"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Email       string  `json:"email"`
	SuccessURL  string  `json:"successUrl"`
	CancelURL   string  `json:"cancelUrl"`
	Description string  `json:"description,omitempty"`
}

// CheckoutSession is the provider's handle for one payment attempt. URL is
// the hosted page the viewer must be sent to with a full navigation.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Verification is the settled outcome of a checkout session.
type Verification struct {
	SessionID     string  `json:"sessionId"`
	Paid          bool    `json:"paid"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

// Provider opens and verifies checkout sessions. Verifying the same session
// twice must yield the same result; the provider treats sessions as settled
// once paid.
type Provider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifySession(ctx context.Context, sessionID string) (*Verification, error)
}
