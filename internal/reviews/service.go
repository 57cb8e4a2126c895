// internal/reviews/service.go
package reviews

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the review service.
type Service interface {
	// AddReview records a review. Only purchasers holding a delivered, paid
	// order for the book may review it, and only once.
	AddReview(ctx context.Context, review *Review) (*Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error)
}
