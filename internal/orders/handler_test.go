// internal/orders/handler_test.go
package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/access"
	"bookcourier/internal/history"
	"bookcourier/internal/identity"
	"bookcourier/internal/payments"
)

// fakeService satisfies Service with canned answers, recording the calls a
// handler makes.
type fakeService struct {
	Service

	orders    map[uuid.UUID]*Order
	receipts  map[string]*Receipt
	verifyN   int
	cancelled []uuid.UUID
}

func newFakeService() *fakeService {
	return &fakeService{
		orders:   map[uuid.UUID]*Order{},
		receipts: map[string]*Receipt{},
	}
}

func (f *fakeService) Cancel(_ context.Context, id uuid.UUID, email string) (*Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if order.UserEmail != email {
		return nil, ErrNotOwner
	}
	if !order.Cancellable() {
		return nil, ErrNotCancellable
	}
	order.Status = FulfillmentCancelled
	f.cancelled = append(f.cancelled, id)
	return order, nil
}

func (f *fakeService) CreateCheckoutSession(_ context.Context, id uuid.UUID, email string) (*payments.CheckoutSession, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if order.UserEmail != email {
		return nil, ErrNotOwner
	}
	if !order.Payable() {
		return nil, ErrNotPayable
	}
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func (f *fakeService) VerifyPayment(_ context.Context, sessionID string) (*Receipt, error) {
	f.verifyN++
	if r, ok := f.receipts[sessionID]; ok {
		return r, nil
	}
	return nil, ErrUnknownSession
}

func (f *fakeService) ListByPurchaser(_ context.Context, email string) ([]*Order, error) {
	out := []*Order{}
	for _, o := range f.orders {
		if o.UserEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeService) History(_ context.Context, id uuid.UUID) ([]history.Event, error) {
	if _, ok := f.orders[id]; !ok {
		return nil, ErrOrderNotFound
	}
	return []history.Event{}, nil
}

func asUser(req *http.Request, email string) *http.Request {
	ctx := access.ContextWithSession(req.Context(), &identity.Session{
		Email:       email,
		DisplayName: "Test Reader",
	})
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleCancelOwnPendingOrder(t *testing.T) {
	svc := newFakeService()
	id := uuid.New()
	svc.orders[id] = &Order{ID: id, UserEmail: "reader@example.com", Status: FulfillmentPending, PaymentStatus: PaymentUnpaid}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id.String()+"/cancel", nil)
	req = asUser(req, "reader@example.com")
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	h.HandleCancel(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.Equal(t, []uuid.UUID{id}, svc.cancelled)
}

func TestHandleCancelRejectsForeignOrder(t *testing.T) {
	svc := newFakeService()
	id := uuid.New()
	svc.orders[id] = &Order{ID: id, UserEmail: "other@example.com", Status: FulfillmentPending}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id.String()+"/cancel", nil)
	req = asUser(req, "reader@example.com")
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	h.HandleCancel(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.cancelled)
}

func TestHandleCancelRejectsShippedOrder(t *testing.T) {
	svc := newFakeService()
	id := uuid.New()
	svc.orders[id] = &Order{ID: id, UserEmail: "reader@example.com", Status: FulfillmentShipped}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id.String()+"/cancel", nil)
	req = asUser(req, "reader@example.com")
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	h.HandleCancel(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCheckoutOnlyForPayableOrders(t *testing.T) {
	svc := newFakeService()
	payable := uuid.New()
	settled := uuid.New()
	svc.orders[payable] = &Order{ID: payable, UserEmail: "reader@example.com", Status: FulfillmentPending, PaymentStatus: PaymentUnpaid}
	svc.orders[settled] = &Order{ID: settled, UserEmail: "reader@example.com", Status: FulfillmentPending, PaymentStatus: PaymentPaid}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/"+payable.String()+"/checkout", nil)
	req = asUser(req, "reader@example.com")
	req = withURLParam(req, "id", payable.String())
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://pay.example.com/cs_test_1")

	req = httptest.NewRequest(http.MethodPost, "/orders/"+settled.String()+"/checkout", nil)
	req = asUser(req, "reader@example.com")
	req = withURLParam(req, "id", settled.String())
	rec = httptest.NewRecorder()
	h.HandleCheckout(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// A success redirect without a session id fails immediately. No
// verification call is made, so no amount of retrying can succeed.
func TestHandlePaymentSuccessRequiresSessionID(t *testing.T) {
	svc := newFakeService()
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/payments/success", nil)
	rec := httptest.NewRecorder()
	h.HandlePaymentSuccess(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing session ID")
	assert.Zero(t, svc.verifyN)
}

func TestHandlePaymentSuccessVerifies(t *testing.T) {
	svc := newFakeService()
	svc.receipts["cs_test_1"] = &Receipt{Success: true, TransactionID: "txn_9", TrackingID: "TRK-ABCDEF123456"}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/payments/success?session_id=cs_test_1", nil)
	rec := httptest.NewRecorder()
	h.HandlePaymentSuccess(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "txn_9")
	assert.Contains(t, rec.Body.String(), "TRK-ABCDEF123456")
	assert.Equal(t, 1, svc.verifyN)
}

func TestHandlePaymentSuccessUnknownSession(t *testing.T) {
	svc := newFakeService()
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/payments/success?session_id=cs_forged", nil)
	rec := httptest.NewRecorder()
	h.HandlePaymentSuccess(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListMineRequiresSession(t *testing.T) {
	h := NewHandler(newFakeService())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	h.HandleListMine(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
