package service

import (
	"context"
	"net/http"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/internal/docextract/storage"
	"github.com/docintake/docintake-backend/pkg/errors"
	"github.com/docintake/docintake-backend/pkg/httputil"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// Extractor turns a request into an outcome without ever failing
type Extractor interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) *domain.ProcessingOutcome
}

// DocumentRepository is the result sink and read side of identity documents
type DocumentRepository interface {
	Persist(ctx context.Context, userID, fileName, sourceRef string, outcome *domain.ProcessingOutcome) (*domain.IdentityDocument, error)
	GetByID(ctx context.Context, id string) (*domain.IdentityDocument, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.IdentityDocument, error)
}

// EventPublisher announces extraction results and queues re-extractions
type EventPublisher interface {
	PublishDocumentExtracted(ctx context.Context, doc *domain.IdentityDocument)
	PublishReextractRequested(ctx context.Context, documentID, requestedBy string) error
	Enabled() bool
}

// Result is a persisted document together with the outcome it was built from
type Result struct {
	Document *domain.IdentityDocument  `json:"document"`
	Outcome  *domain.ProcessingOutcome `json:"outcome"`
}

// Service stores the original, extracts, persists and publishes
type Service struct {
	extractor Extractor
	files     storage.FileStore
	repo      DocumentRepository
	events    EventPublisher
	log       *logger.Logger
}

// NewService creates a new document extraction service
func NewService(extractor Extractor, files storage.FileStore, repo DocumentRepository, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		extractor: extractor,
		files:     files,
		repo:      repo,
		events:    events,
		log:       log,
	}
}

// Process stores the original upload, extracts it and persists the
// outcome. Extraction problems never surface here; an upload that yields
// nothing is stored as an empty record. Only storage and persistence
// failures are returned.
func (s *Service) Process(ctx context.Context, req domain.ExtractionRequest) (*Result, error) {
	if err := httputil.Validate(&req); err != nil {
		return nil, err
	}

	ref, err := s.files.Save(ctx, req.UserID, req.FileName, req.Data)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to store original document")
		return nil, errors.Wrap(err, "STORAGE_FAILED", "failed to store document", http.StatusInternalServerError)
	}

	return s.run(ctx, req, ref)
}

// Reextract runs the pipeline again on the stored original of a document.
// A new row is written; the existing one is left untouched.
func (s *Service) Reextract(ctx context.Context, documentID, requestedBy string) (*Result, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != requestedBy {
		return nil, errors.NotFound("identity document")
	}

	data, err := s.files.Load(ctx, doc.FilePath)
	if err != nil {
		return nil, err
	}

	kind, ok := processor.DetectKind(data, doc.FileName)
	if !ok {
		return nil, errors.BadRequest("stored document has an unsupported format")
	}

	s.log.Info().
		Str("document_id", doc.ID).
		Str("user_id", requestedBy).
		Msg("re-extracting stored document")

	return s.run(ctx, domain.ExtractionRequest{
		Data:     data,
		Kind:     kind,
		UserID:   doc.UserID,
		FileName: doc.FileName,
	}, doc.FilePath)
}

// RequestReextract queues a re-extraction when messaging is enabled and
// returns a nil result. Without messaging the document is re-extracted
// synchronously.
func (s *Service) RequestReextract(ctx context.Context, documentID, userID string) (*Result, error) {
	if !s.events.Enabled() {
		return s.Reextract(ctx, documentID, userID)
	}

	if _, err := s.Get(ctx, documentID, userID); err != nil {
		return nil, err
	}
	if err := s.events.PublishReextractRequested(ctx, documentID, userID); err != nil {
		return nil, errors.Wrap(err, "QUEUE_FAILED", "failed to queue re-extraction", http.StatusServiceUnavailable)
	}
	return nil, nil
}

// Get returns a document owned by userID. Documents of other users are
// reported as not found.
func (s *Service) Get(ctx context.Context, documentID, userID string) (*domain.IdentityDocument, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.NotFound("identity document")
	}
	return doc, nil
}

// List returns a page of the user's documents, newest first
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*domain.IdentityDocument, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) run(ctx context.Context, req domain.ExtractionRequest, ref string) (*Result, error) {
	log := s.log.WithUserID(req.UserID)

	outcome := s.extractor.Extract(ctx, req)

	// The extraction already happened; a client going away must not lose it.
	doc, err := s.repo.Persist(context.WithoutCancel(ctx), req.UserID, req.FileName, ref, outcome)
	if err != nil {
		extractionsTotal.WithLabelValues(string(req.Kind), "persist_failed").Inc()
		log.Error().Err(err).
			Str("backend", outcome.Backend).
			Msg("failed to persist extraction result")
		return nil, errors.Wrap(err, "PERSISTENCE_FAILED", "failed to save extraction result", http.StatusInternalServerError)
	}

	result := "empty"
	if outcome.Succeeded() {
		result = "meaningful"
	}
	fields := doc.FieldsPresent()
	extractionsTotal.WithLabelValues(string(req.Kind), result).Inc()
	fieldsExtracted.Observe(float64(len(fields)))

	s.events.PublishDocumentExtracted(ctx, doc)

	log.WithDocumentID(doc.ID).Info().
		Str("backend", outcome.Backend).
		Bool("fallback_occurred", outcome.FallbackOccurred).
		Int("attempts", len(outcome.Attempts)).
		Int("fields_extracted", len(fields)).
		Msg("document extraction completed")

	return &Result{Document: doc, Outcome: outcome}, nil
}
