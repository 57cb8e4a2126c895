// internal/identity/handler_test.go
package identity

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdentityService records profile updates without a database.
type fakeIdentityService struct {
	Service

	updatedEmail string
	updatedName  string
}

func (f *fakeIdentityService) UpdateProfile(_ context.Context, email, displayName, photoURL string) error {
	if email == "" {
		return ErrUserNotFound
	}
	f.updatedEmail = email
	f.updatedName = displayName
	return nil
}

// The profile route carries no email parameter; the target account must be
// the session's.
func TestHandleUpdateProfileUsesSessionEmail(t *testing.T) {
	svc := &fakeIdentityService{}
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Patch("/users/profile", h.HandleUpdateProfile)

	body := []byte(`{"displayName":"Renamed Reader","photoURL":"http://img.example.com/r.png"}`)
	req := httptest.NewRequest(http.MethodPatch, "/users/profile", bytes.NewReader(body))
	req = req.WithContext(ContextWithSession(req.Context(), &Session{
		Email:       "reader@example.com",
		DisplayName: "Reader",
	}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reader@example.com", svc.updatedEmail)
	assert.Equal(t, "Renamed Reader", svc.updatedName)
}

func TestHandleUpdateProfileRequiresSession(t *testing.T) {
	svc := &fakeIdentityService{}
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Patch("/users/profile", h.HandleUpdateProfile)

	req := httptest.NewRequest(http.MethodPatch, "/users/profile", bytes.NewReader([]byte(`{"displayName":"x"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.updatedEmail)
}
