// internal/identity/handler.go
package identity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookcourier/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
		Password    string `json:"password"`
	}

	if err := web.DecodeJSON(r.Body, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.DisplayName, req.PhotoURL, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := web.DecodeJSON(r.Body, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	}

	if err := web.DecodeJSON(r.Body, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.service.Upsert(r.Context(), req.Email, req.DisplayName, req.PhotoURL)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	web.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	resolution := h.service.ResolveRole(r.Context(), email)
	role, ok := resolution.Resolved()
	if !ok {
		web.WriteError(w, http.StatusNotFound, errors.New("role not resolved"))
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]Role{"role": role})
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req struct {
		Role Role `json:"role"`
	}

	if err := web.DecodeJSON(r.Body, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.UpdateRole(r.Context(), email, req.Role); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			web.WriteError(w, http.StatusNotFound, err)
			return
		}
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleUpdateProfile patches the signed-in user's own name and photo. The
// target account is the session's, never taken from the request.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var req struct {
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	}

	if err := web.DecodeJSON(r.Body, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.UpdateProfile(r.Context(), session.Email, req.DisplayName, req.PhotoURL); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			web.WriteError(w, http.StatusNotFound, err)
			return
		}
		web.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrWrongPassword), errors.Is(err, ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	web.WriteMessage(w, status, err, Message(err))
}
