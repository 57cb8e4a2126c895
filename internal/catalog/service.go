// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, book *Book) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	// ListPublished serves the public listing; it never returns unpublished
	// books regardless of the filter.
	ListPublished(ctx context.Context, filter Filter) (*Page, error)
	// ListAll serves the admin view, including unpublished books.
	ListAll(ctx context.Context) ([]*Book, error)
	ListByLibrarian(ctx context.Context, librarianEmail string) ([]*Book, error)
	// UpdateBook applies a partial update. Librarians may only touch their
	// own books; an admin editor may touch any.
	UpdateBook(ctx context.Context, id uuid.UUID, patch Patch, editor Editor) (*Book, error)
	// DeleteBook removes a book and cascades to its orders.
	DeleteBook(ctx context.Context, id uuid.UUID) error
}
