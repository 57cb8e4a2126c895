// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Status is a book's publication state. Unpublished books never appear in
// public listings.
type Status string

const (
	StatusPublished   Status = "published"
	StatusUnpublished Status = "unpublished"
)

func (s Status) Valid() bool {
	return s == StatusPublished || s == StatusUnpublished
}

// Book represents a listed title, owned by the librarian who added it.
type Book struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Category       string    `json:"category"`
	Description    string    `json:"description,omitempty"`
	Image          string    `json:"image,omitempty"`
	Price          float64   `json:"price"`
	Quantity       int       `json:"quantity"`
	Status         Status    `json:"status"`
	LibrarianName  string    `json:"librarianName,omitempty"`
	LibrarianEmail string    `json:"librarianEmail"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Version        int       `json:"version"`
}

// Filter narrows a listing. Zero values mean "no constraint"; Page and Limit
// default to the first page of a standard size.
type Filter struct {
	Search   string
	Category string
	MaxPrice float64
	Status   Status
	Page     int
	Limit    int
}

// Page is one page of a filtered listing with its totals, so callers can
// render pagination without a second query.
type Page struct {
	Books      []*Book `json:"books"`
	TotalBooks int     `json:"totalBooks"`
	TotalPages int     `json:"totalPages"`
	Page       int     `json:"page"`
}

// Editor identifies who is applying a mutation. Admin editors bypass the
// ownership check.
type Editor struct {
	Email string
	Admin bool
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Status      *Status  `json:"status"`
}
