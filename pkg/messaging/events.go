package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventDocumentExtracted          = "document.extracted"
	EventDocumentReextractRequested = "document.reextract.requested"
)

// Exchange names
const (
	ExchangeDocumentEvents = "document.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Document Events

// DocumentExtractedEvent is published after an extraction result was persisted,
// whether or not any field was recovered. Consumers such as the contract
// workflow use FieldsPresent to decide what still needs manual entry.
type DocumentExtractedEvent struct {
	DocumentID       string   `json:"document_id"`
	UserID           string   `json:"user_id"`
	Backend          string   `json:"backend,omitempty"`
	FallbackOccurred bool     `json:"fallback_occurred"`
	Meaningful       bool     `json:"meaningful"`
	FieldsPresent    []string `json:"fields_present"`
}

// DocumentReextractRequestedEvent asks for a stored original to be processed again
type DocumentReextractRequestedEvent struct {
	DocumentID  string `json:"document_id"`
	RequestedBy string `json:"requested_by"`
}
