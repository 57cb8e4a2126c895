// internal/reviews/domain.go
package reviews

import (
	"time"

	"github.com/google/uuid"
)

// Review is a purchaser's rating of a book they received.
type Review struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"bookId"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
