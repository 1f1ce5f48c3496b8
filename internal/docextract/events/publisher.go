package events

import (
	"context"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/pkg/logger"
	"github.com/docintake/docintake-backend/pkg/messaging"
)

const source = "docintake-service"

// eventPublisher is satisfied by *messaging.Publisher
type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// DocumentEventPublisher publishes identity document events. A nil
// publisher is valid and drops every event, which is how the service
// runs with messaging disabled.
type DocumentEventPublisher struct {
	publisher eventPublisher
	logger    *logger.Logger
}

// NewDocumentEventPublisher creates a new document event publisher
func NewDocumentEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*DocumentEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeDocumentEvents, source, log)
	if err != nil {
		return nil, err
	}

	return &DocumentEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishDocumentExtracted announces a persisted extraction result.
// Failures are logged and never returned.
func (p *DocumentEventPublisher) PublishDocumentExtracted(ctx context.Context, doc *domain.IdentityDocument) {
	if p == nil {
		return
	}

	backend := ""
	if doc.Backend != nil {
		backend = *doc.Backend
	}

	fields := doc.FieldsPresent()
	if fields == nil {
		fields = []string{}
	}

	data := messaging.DocumentExtractedEvent{
		DocumentID:       doc.ID,
		UserID:           doc.UserID,
		Backend:          backend,
		FallbackOccurred: doc.FallbackOccurred,
		Meaningful:       len(fields) > 0,
		FieldsPresent:    fields,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentExtracted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to publish document extracted event")
	}
}

// PublishReextractRequested queues a stored document for another extraction
func (p *DocumentEventPublisher) PublishReextractRequested(ctx context.Context, documentID, requestedBy string) error {
	data := messaging.DocumentReextractRequestedEvent{
		DocumentID:  documentID,
		RequestedBy: requestedBy,
	}
	return p.publisher.Publish(ctx, messaging.EventDocumentReextractRequested, data)
}

// Enabled reports whether events are actually delivered
func (p *DocumentEventPublisher) Enabled() bool {
	return p != nil
}
