package order

import (
	"time"

	"bookheaven-be/internal/book"
	"bookheaven-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOrderReceived    Status = "ORDER_RECEIVED"
	StatusPaymentConfirmed Status = "PAYMENT_CONFIRMED"
	StatusPreparing        Status = "PREPARING"
	StatusReadyForPickup   Status = "READY_FOR_PICKUP"
	StatusPickedUp         Status = "PICKED_UP"
	StatusShipped          Status = "SHIPPED"
	StatusDelivered        Status = "DELIVERED"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
	StatusRefunded         Status = "REFUNDED"
)

var knownStatuses = map[Status]bool{
	StatusOrderReceived:    true,
	StatusPaymentConfirmed: true,
	StatusPreparing:        true,
	StatusReadyForPickup:   true,
	StatusPickedUp:         true,
	StatusShipped:          true,
	StatusDelivered:        true,
	StatusCompleted:        true,
	StatusCancelled:        true,
	StatusRefunded:         true,
}

func (s Status) Valid() bool { return knownStatuses[s] }

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// PaymentMethodCOD is cash on delivery. Any other non-empty method is accepted
// and treated as paid up front.
const PaymentMethodCOD = "COD"

// LineItem carries the catalog price captured when the order was placed.
type LineItem struct {
	BookID   uuid.UUID       `json:"bookId"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedBy uuid.UUID `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []LineItem      `json:"items"`
	ShippingAddress string          `json:"shippingAddress"`
	ShippingFee     string          `json:"shippingFee"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	Payment         PaymentStatus   `json:"payment"`
	History         []StatusChange  `json:"statusHistory"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ItemInput struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}

// PlaceOrderInput is the submitted cart. Fee and total decode leniently so a
// blank value reaches validation instead of failing the body.
type PlaceOrderInput struct {
	Items           []ItemInput `json:"items"`
	ShippingAddress string      `json:"shippingAddress"`
	ShippingFee     Amount      `json:"shippingFee"`
	PaymentMethod   string      `json:"paymentMethod"`
	TotalAmount     Amount      `json:"totalAmount"`
}

type ItemDetail struct {
	LineItem
	Book *book.Book `json:"book"`
}

// OrderDetail is an order joined with its owner and books. User or Book is
// nil when the referenced record no longer exists.
type OrderDetail struct {
	*Order
	User  *user.Account `json:"user"`
	Items []ItemDetail  `json:"items"`
}
