package user

import (
	"time"

	"bookheaven-be/internal/auth"

	"github.com/google/uuid"
)

// Account is a user record. Password holds the bcrypt hash and never leaves the service.
type Account struct {
	ID             uuid.UUID `json:"id"`
	UserName       string    `json:"userName"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Role           auth.Role `json:"role"`
	Address        *string   `json:"address,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	ProfilePicture *string   `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// OrderSummary is the denormalized copy of an order kept on the account.
// It may lag the order store: the two are written independently.
type OrderSummary struct {
	OrderID  uuid.UUID `json:"orderId"`
	Status   string    `json:"status"`
	PlacedAt time.Time `json:"placedAt"`
}

// LibraryEntry grants permanent access to a purchased book's file.
type LibraryEntry struct {
	BookID      uuid.UUID `json:"bookId"`
	BookFile    string    `json:"bookFile"`
	PurchasedAt time.Time `json:"purchasedAt"`
}
