// internal/orders/handler.go
package orders

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookcourier/internal/access"
	"bookcourier/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandlePlace creates an order. The purchaser identity comes from the
// authenticated session, not the request body.
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var order Order
	if err := web.DecodeJSON(r.Body, &order); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}
	order.UserEmail = session.Email
	order.UserName = session.DisplayName

	placed, err := h.service.PlaceOrder(r.Context(), &order)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, placed)
}

// HandleListMine serves the purchaser's my-orders view.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	orders, err := h.service.ListByPurchaser(r.Context(), session.Email)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, orders)
}

// HandleListForLibrarian serves orders placed against the librarian's books.
func (h *Handler) HandleListForLibrarian(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	orders, err := h.service.ListByLibrarian(r.Context(), session.Email)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, orders)
}

// HandleCancel cancels the purchaser's own pending order.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid order ID"))
		return
	}

	order, err := h.service.Cancel(r.Context(), id, session.Email)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, order)
}

// HandleUpdateStatus applies a librarian-side fulfillment transition.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid order ID"))
		return
	}

	var body struct {
		Status FulfillmentStatus `json:"status"`
	}
	if err := web.DecodeJSON(r.Body, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.service.UpdateFulfillment(r.Context(), id, body.Status, session.Email)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, order)
}

// HandleCompletedCheck reports whether the viewer holds a delivered, paid
// order for the book. Review forms use it to decide whether to render.
func (h *Handler) HandleCompletedCheck(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookId"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid book ID"))
		return
	}

	completed, err := h.service.HasCompletedOrder(r.Context(), session.Email, bookID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

// HandleCheckout opens a checkout session for a payable order and returns
// the hosted payment page URL.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid order ID"))
		return
	}

	checkout, err := h.service.CreateCheckoutSession(r.Context(), id, session.Email)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, checkout)
}

// HandlePaymentSuccess verifies the session named by the provider's success
// redirect. A redirect that arrives without a session id is a terminal
// error: there is nothing to verify and no retry will change that.
func (h *Handler) HandlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		web.WriteError(w, http.StatusBadRequest, errors.New("Missing session ID"))
		return
	}

	receipt, err := h.service.VerifyPayment(r.Context(), sessionID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, receipt)
}

// HandleListPayments serves the purchaser's invoices.
func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	records, err := h.service.ListPayments(r.Context(), session.Email)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, records)
}

// HandleHistory serves the recorded lifecycle events for an order.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid order ID"))
		return
	}

	events, err := h.service.History(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, events)
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrUnknownSession):
		web.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrBookUnavailable):
		web.WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrNotOwner):
		web.WriteError(w, http.StatusForbidden, err)
	case errors.Is(err, ErrNotCancellable), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotPayable):
		web.WriteError(w, http.StatusConflict, err)
	case errors.Is(err, ErrVerificationFailed):
		web.WriteError(w, http.StatusPaymentRequired, err)
	default:
		web.WriteError(w, http.StatusInternalServerError, err)
	}
}
