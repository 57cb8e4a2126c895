// internal/wishlist/handler_test.go
package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/access"
	"bookcourier/internal/identity"
)

type fakeWishlist struct {
	entries map[uuid.UUID]*Entry
}

func (f *fakeWishlist) Save(_ context.Context, entry *Entry) (*Entry, error) {
	for _, e := range f.entries {
		if e.UserEmail == entry.UserEmail && e.BookID == entry.BookID {
			return nil, ErrAlreadySaved
		}
	}
	entry.ID = uuid.New()
	f.entries[entry.ID] = entry
	return entry, nil
}

func (f *fakeWishlist) ListByOwner(_ context.Context, email string) ([]*Entry, error) {
	out := []*Entry{}
	for _, e := range f.entries {
		if e.UserEmail == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWishlist) Remove(_ context.Context, id uuid.UUID, ownerEmail string) error {
	if e, ok := f.entries[id]; ok && e.UserEmail == ownerEmail {
		delete(f.entries, id)
		return nil
	}
	return ErrEntryNotFound
}

func asOwner(req *http.Request, email string) *http.Request {
	return req.WithContext(access.ContextWithSession(req.Context(), &identity.Session{Email: email}))
}

func TestHandleSaveRejectsDuplicate(t *testing.T) {
	svc := &fakeWishlist{entries: map[uuid.UUID]*Entry{}}
	h := NewHandler(svc)
	bookID := uuid.New()

	body, _ := json.Marshal(map[string]interface{}{"bookId": bookID, "bookTitle": "Learning Go"})

	req := httptest.NewRequest(http.MethodPost, "/wishlist", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSave(rec, asOwner(req, "reader@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/wishlist", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.HandleSave(rec, asOwner(req, "reader@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// Removing someone else's entry reports not found, leaking nothing about
// other users' lists.
func TestHandleRemoveScopedToOwner(t *testing.T) {
	svc := &fakeWishlist{entries: map[uuid.UUID]*Entry{}}
	id := uuid.New()
	svc.entries[id] = &Entry{ID: id, UserEmail: "owner@example.com"}
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/wishlist/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.HandleRemove(rec, asOwner(req, "intruder@example.com"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleRemove(rec, asOwner(req, "owner@example.com"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
