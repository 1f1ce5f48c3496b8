package consumers

import (
	"context"

	"github.com/docintake/docintake-backend/internal/docextract/service"
	"github.com/docintake/docintake-backend/pkg/errors"
	"github.com/docintake/docintake-backend/pkg/logger"
	"github.com/docintake/docintake-backend/pkg/messaging"
)

const reextractQueue = "docintake-service.reextract"

// Reextractor runs the extraction pipeline again on a stored original
type Reextractor interface {
	Reextract(ctx context.Context, documentID, requestedBy string) (*service.Result, error)
}

// ReextractConsumer consumes document.reextract.requested events
type ReextractConsumer struct {
	consumer *messaging.Consumer
	svc      Reextractor
	logger   *logger.Logger
}

// NewReextractConsumer creates a new re-extraction consumer
func NewReextractConsumer(rmq *messaging.RabbitMQ, svc Reextractor, log *logger.Logger) (*ReextractConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, reextractQueue, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeDocumentEvents, messaging.EventDocumentReextractRequested); err != nil {
		return nil, err
	}

	c := &ReextractConsumer{
		consumer: consumer,
		svc:      svc,
		logger:   log,
	}

	consumer.RegisterHandler(messaging.EventDocumentReextractRequested, c.handleReextractRequested)

	return c, nil
}

// Start starts consuming messages
func (c *ReextractConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *ReextractConsumer) handleReextractRequested(ctx context.Context, event *messaging.Event) error {
	var data messaging.DocumentReextractRequestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("document_id", data.DocumentID).
		Str("requested_by", data.RequestedBy).
		Msg("received re-extraction request")

	result, err := c.svc.Reextract(ctx, data.DocumentID, data.RequestedBy)
	if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrBadRequest) {
		// Redelivery cannot fix a missing document or an unreadable original
		c.logger.Warn().Err(err).Str("document_id", data.DocumentID).Msg("dropping re-extraction request")
		return nil
	}
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("document_id", data.DocumentID).
		Str("new_document_id", result.Document.ID).
		Msg("document re-extracted")
	return nil
}
