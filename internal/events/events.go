// Package events publishes order lifecycle notifications to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderPlaced         Type = "order.placed"
	OrderStatusChanged  Type = "order.status_changed"
	OrderPaymentUpdated Type = "order.payment_updated"
	OrderCancelled      Type = "order.cancelled"
	OrderDeleted        Type = "order.deleted"
	LibraryGranted      Type = "library.granted"
)

type Event struct {
	Type       Type        `json:"type"`
	OrderID    uuid.UUID   `json:"orderId"`
	UserID     uuid.UUID   `json:"userId"`
	ActorID    uuid.UUID   `json:"actorId"`
	Status     string      `json:"status,omitempty"`
	Payment    string      `json:"payment,omitempty"`
	BookIDs    []uuid.UUID `json:"bookIds,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
