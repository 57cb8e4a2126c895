// internal/wishlist/handler.go
package wishlist

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

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var entry Entry
	if err := web.DecodeJSON(r.Body, &entry); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}
	entry.UserEmail = session.Email

	saved, err := h.service.Save(r.Context(), &entry)
	if err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			web.WriteError(w, http.StatusConflict, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	entries, err := h.service.ListByOwner(r.Context(), session.Email)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	session, ok := access.SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, errors.New("invalid entry ID"))
		return
	}

	if err := h.service.Remove(r.Context(), id, session.Email); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			web.WriteError(w, http.StatusNotFound, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
