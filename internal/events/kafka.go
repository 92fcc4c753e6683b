package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Kafka struct {
	w messageWriter
}

// NewKafka builds a publisher writing to topic. Messages are keyed by order id
// so every event of one order lands on the same partition.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return k.w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(e.OrderID.String()),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
