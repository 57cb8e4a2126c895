// pkg/client/types.go
package client

import (
	"time"

	"github.com/google/uuid"
)

// Wire types mirroring the API's JSON. Declared here so importers of this
// package never need the server's internal packages.

// Book is a listed title as the API serves it.
type Book struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Category       string    `json:"category"`
	Description    string    `json:"description,omitempty"`
	Image          string    `json:"image,omitempty"`
	Price          float64   `json:"price"`
	Quantity       int       `json:"quantity"`
	Status         string    `json:"status"`
	LibrarianName  string    `json:"librarianName,omitempty"`
	LibrarianEmail string    `json:"librarianEmail"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Version        int       `json:"version"`
}

// Filter narrows a book listing. Zero values mean "no constraint".
type Filter struct {
	Search   string
	Category string
	MaxPrice float64
	Page     int
	Limit    int
}

// Page is one page of a filtered listing with its totals.
type Page struct {
	Books      []*Book `json:"books"`
	TotalBooks int     `json:"totalBooks"`
	TotalPages int     `json:"totalPages"`
	Page       int     `json:"page"`
}

// Order is a placed order. Status holds the fulfillment axis (pending,
// shipped, delivered, cancelled); PaymentStatus holds unpaid or paid.
type Order struct {
	ID            uuid.UUID `json:"id"`
	BookID        uuid.UUID `json:"bookId"`
	BookTitle     string    `json:"bookTitle"`
	BookImage     string    `json:"bookImage,omitempty"`
	Price         float64   `json:"price"`
	UserEmail     string    `json:"userEmail"`
	UserName      string    `json:"userName"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TransactionID string    `json:"transactionId,omitempty"`
	TrackingID    string    `json:"trackingId,omitempty"`
	OrderDate     time.Time `json:"orderDate"`
	Version       int       `json:"version"`
}

// OrderRequest is the payload for placing an order.
type OrderRequest struct {
	BookID  uuid.UUID `json:"bookId"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
}

// Receipt is the settled outcome of a payment verification.
type Receipt struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
}
