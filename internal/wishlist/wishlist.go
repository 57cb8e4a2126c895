// internal/wishlist/wishlist.go

// Package wishlist stores the books a signed-in user has saved for later.
// One entry per user and book; saving the same book twice is a no-op
// surfaced as a conflict.
package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrEntryNotFound = errors.New("wishlist entry not found")
	ErrAlreadySaved  = errors.New("book already in wishlist")
)

// Entry is a saved book with display fields denormalized at save time.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserEmail string    `json:"userEmail"`
	BookID    uuid.UUID `json:"bookId"`
	BookTitle string    `json:"bookTitle"`
	BookImage string    `json:"bookImage,omitempty"`
	Price     float64   `json:"price"`
	SavedAt   time.Time `json:"savedAt"`
}

// Service defines the interface for the wishlist service.
type Service interface {
	Save(ctx context.Context, entry *Entry) (*Entry, error)
	ListByOwner(ctx context.Context, email string) ([]*Entry, error)
	// Remove deletes the owner's entry. Removing someone else's entry is
	// indistinguishable from removing a missing one.
	Remove(ctx context.Context, id uuid.UUID, ownerEmail string) error
}

type service struct {
	db *sql.DB
}

// NewService creates a new wishlist service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Save(ctx context.Context, entry *Entry) (*Entry, error) {
	entry.ID = uuid.New()
	entry.SavedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlist (id, user_email, book_id, book_title, book_image, price, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserEmail, entry.BookID, entry.BookTitle, entry.BookImage, entry.Price, entry.SavedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadySaved
		}
		return nil, fmt.Errorf("failed to save wishlist entry: %w", err)
	}
	return entry, nil
}

func (s *service) ListByOwner(ctx context.Context, email string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_email, book_id, book_title, book_image, price, saved_at
		FROM wishlist
		WHERE user_email = $1
		ORDER BY saved_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.ID, &entry.UserEmail, &entry.BookID, &entry.BookTitle, &entry.BookImage, &entry.Price, &entry.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *service) Remove(ctx context.Context, id uuid.UUID, ownerEmail string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM wishlist WHERE id = $1 AND user_email = $2
	`, id, ownerEmail)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}
