// internal/orders/service.go
package orders

import (
	"context"

	"github.com/google/uuid"

	"bookcourier/internal/history"
	"bookcourier/internal/payments"
)

// Service defines the interface for the order lifecycle service.
type Service interface {
	// PlaceOrder creates a pending, unpaid order for a published book.
	PlaceOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByPurchaser(ctx context.Context, email string) ([]*Order, error)
	// ListByLibrarian returns orders for books owned by the librarian.
	ListByLibrarian(ctx context.Context, librarianEmail string) ([]*Order, error)

	// Cancel is the purchaser-side cancel: only the owning purchaser, only
	// while the order is still pending.
	Cancel(ctx context.Context, id uuid.UUID, purchaserEmail string) (*Order, error)
	// UpdateFulfillment is the librarian-side transition (shipped,
	// delivered, or cancelled while pending) on an order for an owned book.
	UpdateFulfillment(ctx context.Context, id uuid.UUID, next FulfillmentStatus, librarianEmail string) (*Order, error)

	// HasCompletedOrder gates review submission: a delivered, paid order for
	// the book must exist for the given purchaser.
	HasCompletedOrder(ctx context.Context, email string, bookID uuid.UUID) (bool, error)

	// CreateCheckoutSession opens a checkout for a payable order and returns
	// the hosted page to navigate to.
	CreateCheckoutSession(ctx context.Context, id uuid.UUID, purchaserEmail string) (*payments.CheckoutSession, error)
	// VerifyPayment settles the checkout session named by the success
	// redirect. Verifying an already-settled session returns the stored
	// receipt without re-applying any effect.
	VerifyPayment(ctx context.Context, sessionID string) (*Receipt, error)

	ListPayments(ctx context.Context, email string) ([]*PaymentRecord, error)
	History(ctx context.Context, id uuid.UUID) ([]history.Event, error)
}
