package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docintake/docintake-backend/pkg/logger"
)

// recordingAcknowledger captures how a delivery was settled
type recordingAcknowledger struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

func newTestConsumer(handler MessageHandler) *Consumer {
	c := &Consumer{
		queueName: "docintake.reextract",
		handlers:  make(map[string]MessageHandler),
		logger:    logger.Nop(),
	}
	if handler != nil {
		c.RegisterHandler(EventDocumentReextractRequested, handler)
	}
	return c
}

func delivery(t *testing.T, ack amqp.Acknowledger, eventType string, headers amqp.Table) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", DocumentReextractRequestedEvent{DocumentID: "doc-1"})
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Headers: headers}
}

func TestConsumer_HandleMessage_Success(t *testing.T) {
	var got DocumentReextractRequestedEvent
	var correlationID string
	c := newTestConsumer(func(ctx context.Context, event *Event) error {
		correlationID = getCorrelationID(ctx)
		return event.UnmarshalData(&got)
	})
	ack := &recordingAcknowledger{}

	c.handleMessage(context.Background(), delivery(t, ack, EventDocumentReextractRequested, nil))

	assert.True(t, ack.acked)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "corr-1", correlationID)
}

func TestConsumer_HandleMessage_HandlerErrorRequeues(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, event *Event) error {
		return errors.New("temporary")
	})
	ack := &recordingAcknowledger{}

	c.handleMessage(context.Background(), delivery(t, ack, EventDocumentReextractRequested, nil))

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestConsumer_HandleMessage_MaxRetriesDeadLetters(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, event *Event) error {
		return errors.New("permanent")
	})
	ack := &recordingAcknowledger{}
	headers := amqp.Table{"x-death": []interface{}{amqp.Table{"count": int64(maxRedeliveries)}}}

	c.handleMessage(context.Background(), delivery(t, ack, EventDocumentReextractRequested, headers))

	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestConsumer_HandleMessage_Malformed(t *testing.T) {
	c := newTestConsumer(nil)
	ack := &recordingAcknowledger{}

	c.handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestConsumer_HandleMessage_UnknownTypeAcked(t *testing.T) {
	c := newTestConsumer(nil)
	ack := &recordingAcknowledger{}

	c.handleMessage(context.Background(), delivery(t, ack, "something.else", nil))

	assert.True(t, ack.acked)
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventDocumentExtracted, "docintake-service", "", DocumentExtractedEvent{
		DocumentID:    "doc-1",
		FieldsPresent: []string{"county"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventDocumentExtracted, event.Type)

	var data DocumentExtractedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, []string{"county"}, data.FieldsPresent)
}
