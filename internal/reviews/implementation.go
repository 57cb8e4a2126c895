// internal/reviews/implementation.go
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bookcourier/internal/orders"
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyComment    = errors.New("comment is required")
	ErrNotEligible     = errors.New("only completed orders can be reviewed")
	ErrAlreadyReviewed = errors.New("book already reviewed")
)

// service implements the Service interface.
type service struct {
	db     *sql.DB
	orders orders.Service
}

// NewService creates a new review service instance.
func NewService(db *sql.DB, orders orders.Service) Service {
	return &service{db: db, orders: orders}
}

func (s *service) AddReview(ctx context.Context, review *Review) (*Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(review.Comment) == "" {
		return nil, ErrEmptyComment
	}

	eligible, err := s.orders.HasCompletedOrder(ctx, review.UserEmail, review.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check eligibility: %w", err)
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	review.ID = uuid.New()
	review.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_email, user_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, review.ID, review.BookID, review.UserEmail, review.UserName, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return review, nil
}

func (s *service) ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, user_email, user_name, rating, comment, created_at
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		review := &Review{}
		if err := rows.Scan(&review.ID, &review.BookID, &review.UserEmail, &review.UserName, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
