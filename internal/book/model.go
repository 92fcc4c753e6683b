package book

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book is the catalog view the order lifecycle needs: price and the
// downloadable file granted on purchase.
type Book struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	BookFile *string         `json:"bookFile,omitempty"`
}

// HasContent reports whether the book carries a downloadable file.
func (b *Book) HasContent() bool {
	return b.BookFile != nil && *b.BookFile != ""
}
