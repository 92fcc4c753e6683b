package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w}
	orderID, bookID := uuid.New(), uuid.New()

	err := k.Publish(context.Background(), Event{
		Type:    LibraryGranted,
		OrderID: orderID,
		BookIDs: []uuid.UUID{bookID},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, orderID.String(), string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "library.granted", string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, LibraryGranted, got.Type)
	assert.Equal(t, []uuid.UUID{bookID}, got.BookIDs)
	assert.WithinDuration(t, time.Now(), got.OccurredAt, time.Minute)
}

func TestKafka_PublishError(t *testing.T) {
	k := &Kafka{w: &fakeWriter{err: errors.New("broker down")}}

	err := k.Publish(context.Background(), Event{Type: OrderPlaced, OrderID: uuid.New()})
	assert.EqualError(t, err, "broker down")
}

func TestKafka_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, (&Kafka{w: w}).Close())
	assert.True(t, w.closed)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
