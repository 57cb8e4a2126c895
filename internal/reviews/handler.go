// internal/reviews/handler.go
package reviews

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

// HandleList serves a book's reviews. Public, same as the book page itself.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "bookId"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid book ID"))
		return
	}

	reviews, err := h.service.ListByBook(r.Context(), bookID)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, reviews)
}

// HandleAdd records a review. The reviewer identity comes from the
// authenticated session.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var review Review
	if err := web.DecodeJSON(r.Body, &review); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}
	review.UserEmail = session.Email
	review.UserName = session.DisplayName

	created, err := h.service.AddReview(r.Context(), &review)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrEmptyComment):
			web.WriteError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrNotEligible):
			web.WriteError(w, http.StatusForbidden, err)
		case errors.Is(err, ErrAlreadyReviewed):
			web.WriteError(w, http.StatusConflict, err)
		default:
			web.WriteError(w, http.StatusInternalServerError, err)
		}
		return
	}
	web.WriteJSON(w, http.StatusCreated, created)
}
