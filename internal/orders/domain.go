// internal/orders/domain.go

// Package orders tracks an order across its two independent status axes:
// fulfillment (pending, shipped, delivered, cancelled) and payment (unpaid,
// paid). Fulfillment moves only forward along pending → shipped → delivered
// or pending → cancelled; payment only ever moves unpaid → paid, and only
// through checkout verification.
package orders

import (
	"time"

	"github.com/google/uuid"
)

// FulfillmentStatus is the delivery axis of an order's lifecycle.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentShipped   FulfillmentStatus = "shipped"
	FulfillmentDelivered FulfillmentStatus = "delivered"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentPending, FulfillmentShipped, FulfillmentDelivered, FulfillmentCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further fulfillment transition is permitted.
func (s FulfillmentStatus) Terminal() bool {
	return s == FulfillmentDelivered || s == FulfillmentCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal
// fulfillment transition.
func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	switch s {
	case FulfillmentPending:
		return next == FulfillmentShipped || next == FulfillmentCancelled
	case FulfillmentShipped:
		return next == FulfillmentDelivered
	}
	return false
}

// PaymentStatus is the payment axis of an order's lifecycle.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Order is a placed order with book fields denormalized at placement time.
type Order struct {
	ID            uuid.UUID         `json:"id"`
	BookID        uuid.UUID         `json:"bookId"`
	BookTitle     string            `json:"bookTitle"`
	BookImage     string            `json:"bookImage,omitempty"`
	Price         float64           `json:"price"`
	UserEmail     string            `json:"userEmail"`
	UserName      string            `json:"userName"`
	Phone         string            `json:"phone"`
	Address       string            `json:"address"`
	Status        FulfillmentStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	TransactionID string            `json:"transactionId,omitempty"`
	TrackingID    string            `json:"trackingId,omitempty"`
	OrderDate     time.Time         `json:"orderDate"`
	Version       int               `json:"version"`
}

// Payable reports whether the "Pay Now" action applies: only a pending,
// unpaid order can start a checkout.
func (o *Order) Payable() bool {
	return o.Status == FulfillmentPending && o.PaymentStatus == PaymentUnpaid
}

// Cancellable reports whether a purchaser-side cancel applies.
func (o *Order) Cancellable() bool {
	return o.Status == FulfillmentPending
}

// PaymentRecord is the invoice row written when a checkout session verifies
// as paid.
type PaymentRecord struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"orderId"`
	Email         string    `json:"email"`
	BookTitle     string    `json:"bookTitle"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transactionId"`
	TrackingID    string    `json:"trackingId"`
	SessionID     string    `json:"-"`
	PaidAt        time.Time `json:"paidAt"`
}

// Receipt is what the payment-success page shows after verification.
type Receipt struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
}
