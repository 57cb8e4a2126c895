// internal/orders/implementation.go
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookcourier/internal/catalog"
	"bookcourier/internal/history"
	"bookcourier/internal/metrics"
	"bookcourier/internal/payments"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrMissingFields      = errors.New("phone and address are required")
	ErrBookUnavailable    = errors.New("book is not available for ordering")
	ErrNotOwner           = errors.New("order belongs to another account")
	ErrNotCancellable     = errors.New("order can no longer be cancelled")
	ErrInvalidTransition  = errors.New("fulfillment transition not permitted")
	ErrNotPayable         = errors.New("order is not payable")
	ErrUnknownSession     = errors.New("unknown checkout session")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// RedirectURLs are the fixed application routes the checkout provider
// returns control to.
type RedirectURLs struct {
	Success string
	Cancel  string
}

// service implements the Service interface.
type service struct {
	db        *sql.DB
	books     catalog.Service
	provider  payments.Provider
	log       *history.Log
	redirects RedirectURLs
	tracer    trace.Tracer
}

// NewService creates a new order lifecycle service instance.
func NewService(db *sql.DB, books catalog.Service, provider payments.Provider, log *history.Log, redirects RedirectURLs) Service {
	return &service{
		db:        db,
		books:     books,
		provider:  provider,
		log:       log,
		redirects: redirects,
		tracer:    otel.Tracer("bookcourier/orders"),
	}
}

// PlaceOrder creates a pending, unpaid order. Book title, image and price
// are denormalized from the catalog record, not taken from the caller.
func (s *service) PlaceOrder(ctx context.Context, order *Order) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.place",
		trace.WithAttributes(attribute.String("book.id", order.BookID.String())),
	)
	defer span.End()

	if strings.TrimSpace(order.Phone) == "" || strings.TrimSpace(order.Address) == "" {
		return nil, ErrMissingFields
	}
	if order.UserEmail == "" {
		return nil, fmt.Errorf("%w: purchaser email missing", ErrMissingFields)
	}

	book, err := s.books.GetBook(ctx, order.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book.Status != catalog.StatusPublished || book.Quantity <= 0 {
		return nil, ErrBookUnavailable
	}

	order.ID = uuid.New()
	order.BookTitle = book.Title
	order.BookImage = book.Image
	order.Price = book.Price
	order.Status = FulfillmentPending
	order.PaymentStatus = PaymentUnpaid
	order.TransactionID = ""
	order.OrderDate = time.Now().UTC()
	order.Version = 1

	query := `
		INSERT INTO orders (id, book_id, book_title, book_image, price, user_email, user_name, phone, address, status, payment_status, transaction_id, order_date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(ctx, query,
		order.ID, order.BookID, order.BookTitle, order.BookImage, order.Price,
		order.UserEmail, order.UserName, order.Phone, order.Address,
		order.Status, order.PaymentStatus, order.TransactionID, order.OrderDate, order.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := s.log.Append(ctx, order.ID, 0, history.EventOrderPlaced, order); err != nil {
		return nil, fmt.Errorf("failed to record order event: %w", err)
	}

	metrics.RecordOrderPlaced()
	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListByPurchaser returns a purchaser's orders, newest first.
func (s *service) ListByPurchaser(ctx context.Context, email string) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, selectOrder+` WHERE user_email = $1 ORDER BY order_date DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListByLibrarian returns orders placed against the librarian's books.
func (s *service) ListByLibrarian(ctx context.Context, librarianEmail string) ([]*Order, error) {
	query := `
		SELECT o.id, o.book_id, o.book_title, o.book_image, o.price, o.user_email, o.user_name, o.phone, o.address, o.status, o.payment_status, o.transaction_id, o.tracking_id, o.order_date, o.version
		FROM orders o
		JOIN books b ON b.id = o.book_id
		WHERE b.librarian_email = $1
		ORDER BY o.order_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, librarianEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list librarian orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// Cancel is the purchaser-side cancel. Cancellation is terminal.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, purchaserEmail string) (*Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserEmail != purchaserEmail {
		return nil, ErrNotOwner
	}
	if !order.Cancellable() {
		return nil, ErrNotCancellable
	}

	return s.transition(ctx, order, FulfillmentCancelled, history.EventOrderCancelled)
}

// UpdateFulfillment applies a librarian-side transition on an order for one
// of their books. Cancelling mirrors the purchaser rule: only while pending.
func (s *service) UpdateFulfillment(ctx context.Context, id uuid.UUID, next FulfillmentStatus, librarianEmail string) (*Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownsOrder(ctx, order, librarianEmail)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNotOwner
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	return s.transition(ctx, order, next, eventForStatus(next))
}

func (s *service) ownsOrder(ctx context.Context, order *Order, librarianEmail string) (bool, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT librarian_email FROM books WHERE id = $1`, order.BookID).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve book owner: %w", err)
	}
	return owner == librarianEmail, nil
}

func eventForStatus(status FulfillmentStatus) string {
	switch status {
	case FulfillmentShipped:
		return history.EventOrderShipped
	case FulfillmentDelivered:
		return history.EventOrderDelivered
	case FulfillmentCancelled:
		return history.EventOrderCancelled
	}
	return "OrderStatusChanged"
}

// transition moves the fulfillment status under optimistic concurrency and
// records the event.
func (s *service) transition(ctx context.Context, order *Order, next FulfillmentStatus, eventType string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.transition",
		trace.WithAttributes(
			attribute.String("order.id", order.ID.String()),
			attribute.String("status.from", string(order.Status)),
			attribute.String("status.to", string(next)),
		),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`, next, order.ID, order.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: order changed underneath the update", ErrInvalidTransition)
	}

	version, err := s.log.CurrentVersion(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if err := s.log.Append(ctx, order.ID, version, eventType, map[string]string{
		"from": string(order.Status),
		"to":   string(next),
	}); err != nil {
		return nil, fmt.Errorf("failed to record order event: %w", err)
	}

	metrics.RecordOrderTransition(string(next))
	return s.GetOrder(ctx, order.ID)
}

// HasCompletedOrder reports whether the purchaser holds a delivered, paid
// order for the book.
func (s *service) HasCompletedOrder(ctx context.Context, email string, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_email = $1 AND book_id = $2 AND status = $3 AND payment_status = $4
		)
	`, email, bookID, FulfillmentDelivered, PaymentPaid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check orders: %w", err)
	}
	return exists, nil
}

// CreateCheckoutSession opens a checkout for a payable order. The session id
// is stored on the order so the success redirect can find it again.
func (s *service) CreateCheckoutSession(ctx context.Context, id uuid.UUID, purchaserEmail string) (*payments.CheckoutSession, error) {
	ctx, span := s.tracer.Start(ctx, "orders.checkout",
		trace.WithAttributes(attribute.String("order.id", id.String())),
	)
	defer span.End()

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserEmail != purchaserEmail {
		return nil, ErrNotOwner
	}
	if !order.Payable() {
		return nil, ErrNotPayable
	}

	session, err := s.provider.CreateSession(ctx, payments.CheckoutRequest{
		OrderID:    order.ID.String(),
		BookTitle:  order.BookTitle,
		Amount:     order.Price,
		Currency:   "BDT",
		Email:      order.UserEmail,
		SuccessURL: s.redirects.Success,
		CancelURL:  s.redirects.Cancel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE orders SET checkout_session_id = $1, updated_at = NOW() WHERE id = $2
	`, session.ID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to store checkout session: %w", err)
	}

	span.SetAttributes(attribute.String("checkout.session", session.ID))
	return session, nil
}

// VerifyPayment settles the session named by the success redirect. Repeat
// verification of a settled session returns the stored receipt unchanged.
func (s *service) VerifyPayment(ctx context.Context, sessionID string) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "orders.verify_payment",
		trace.WithAttributes(attribute.String("checkout.session", sessionID)),
	)
	defer span.End()

	order, err := s.orderBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Already settled: idempotent replay.
	if order.PaymentStatus == PaymentPaid {
		metrics.RecordPaymentVerification("replayed")
		return &Receipt{Success: true, TransactionID: order.TransactionID, TrackingID: order.TrackingID}, nil
	}

	verification, err := s.provider.VerifySession(ctx, sessionID)
	if err != nil {
		metrics.RecordPaymentVerification("failed")
		if errors.Is(err, payments.ErrSessionNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !verification.Paid {
		metrics.RecordPaymentVerification("failed")
		return nil, ErrVerificationFailed
	}

	trackingID := newTrackingID()

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, transaction_id = $2, tracking_id = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND payment_status = $5
	`, PaymentPaid, verification.TransactionID, trackingID, order.ID, PaymentUnpaid)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// A concurrent verification of the same session won the race.
		settled, err := s.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		return &Receipt{Success: true, TransactionID: settled.TransactionID, TrackingID: settled.TrackingID}, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_records (id, order_id, email, book_title, amount, transaction_id, tracking_id, session_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
	`, uuid.New(), order.ID, order.UserEmail, order.BookTitle, verification.Amount, verification.TransactionID, trackingID, sessionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	version, err := s.log.CurrentVersion(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if err := s.log.Append(ctx, order.ID, version, history.EventOrderPaid, map[string]string{
		"transactionId": verification.TransactionID,
		"trackingId":    trackingID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment event: %w", err)
	}

	metrics.RecordPaymentVerification("settled")
	return &Receipt{Success: true, TransactionID: verification.TransactionID, TrackingID: trackingID}, nil
}

func (s *service) orderBySession(ctx context.Context, sessionID string) (*Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE checkout_session_id = $1`, sessionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownSession
		}
		return nil, fmt.Errorf("failed to find order for session: %w", err)
	}
	return order, nil
}

// ListPayments returns a purchaser's invoices, newest first.
func (s *service) ListPayments(ctx context.Context, email string) ([]*PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, email, book_title, amount, transaction_id, tracking_id, session_id, paid_at
		FROM payment_records
		WHERE email = $1
		ORDER BY paid_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	records := []*PaymentRecord{}
	for rows.Next() {
		rec := &PaymentRecord{}
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Email, &rec.BookTitle, &rec.Amount, &rec.TransactionID, &rec.TrackingID, &rec.SessionID, &rec.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// History returns the recorded lifecycle events for an order.
func (s *service) History(ctx context.Context, id uuid.UUID) ([]history.Event, error) {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return s.log.Events(ctx, id)
}

func newTrackingID() string {
	return "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

const selectOrder = `
	SELECT id, book_id, book_title, book_image, price, user_email, user_name, phone, address, status, payment_status, transaction_id, tracking_id, order_date, version
	FROM orders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	order := &Order{}
	var transactionID, trackingID sql.NullString
	err := row.Scan(
		&order.ID,
		&order.BookID,
		&order.BookTitle,
		&order.BookImage,
		&order.Price,
		&order.UserEmail,
		&order.UserName,
		&order.Phone,
		&order.Address,
		&order.Status,
		&order.PaymentStatus,
		&transactionID,
		&trackingID,
		&order.OrderDate,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}
	order.TransactionID = transactionID.String
	order.TrackingID = trackingID.String
	return order, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	orders := []*Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
