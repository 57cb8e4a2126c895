// internal/catalog/handler.go
package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookcourier/internal/access"
	"bookcourier/internal/identity"
	"bookcourier/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleList serves the public, filterable listing.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	if v := q.Get("maxPrice"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			web.WriteError(w, http.StatusBadRequest, errors.New("invalid maxPrice"))
			return
		}
		filter.MaxPrice = price
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.service.ListPublished(r.Context(), filter)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid book ID"))
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			web.WriteError(w, http.StatusNotFound, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, book)
}

// HandleAdd creates a book. The owning librarian identity comes from the
// authenticated session, not the request body.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var book Book
	if err := web.DecodeJSON(r.Body, &book); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}
	book.LibrarianName = session.DisplayName
	book.LibrarianEmail = session.Email

	created, err := h.service.AddBook(r.Context(), &book)
	if err != nil {
		if errors.Is(err, ErrInvalidBook) {
			web.WriteError(w, http.StatusBadRequest, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, created)
}

// HandleListAll serves the admin manage-books view.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAll(r.Context())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, books)
}

// HandleListMine serves the librarian's own books.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	books, err := h.service.ListByLibrarian(r.Context(), session.Email)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, books)
}

// HandleUpdate applies a partial update. Librarians may only touch their own
// books; admins may touch any.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid book ID"))
		return
	}

	var patch Patch
	if err := web.DecodeJSON(r.Body, &patch); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	role, _ := access.RoleFrom(r.Context())
	editor := Editor{Email: session.Email, Admin: role == identity.RoleAdmin}

	updated, err := h.service.UpdateBook(r.Context(), id, patch, editor)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookNotFound):
			web.WriteError(w, http.StatusNotFound, err)
		case errors.Is(err, ErrInvalidBook):
			web.WriteError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrNotOwner):
			web.WriteError(w, http.StatusForbidden, err)
		case errors.Is(err, ErrStaleVersion):
			web.WriteError(w, http.StatusConflict, err)
		default:
			web.WriteError(w, http.StatusInternalServerError, err)
		}
		return
	}
	web.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid book ID"))
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			web.WriteError(w, http.StatusNotFound, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
