package service

import (
	"context"
	"strings"
	"time"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/internal/docextract/parser"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// Orchestrator runs the recognition backends in priority order until one
// of them yields a meaningful record.
type Orchestrator struct {
	registry *processor.Registry
	log      *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(registry *processor.Registry, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		log:      log.WithComponent("orchestrator"),
	}
}

// Extract never fails: when every backend errors or yields nothing the
// outcome carries an empty record and no backend.
func (o *Orchestrator) Extract(ctx context.Context, req domain.ExtractionRequest) *domain.ProcessingOutcome {
	// Request cancellation must not abort an extraction halfway; every
	// backend enforces its own ceiling.
	ctx = context.WithoutCancel(ctx)
	log := o.log.WithUserID(req.UserID)

	outcome := &domain.ProcessingOutcome{}
	if req.Kind == domain.KindPDF {
		if n, err := processor.PageCount(req.Data); err != nil {
			log.Warn().Err(err).Str("file_name", req.FileName).Msg("could not read pdf page count")
		} else {
			outcome.PageCount = n
		}
	}

	backends := o.registry.FindBackends(req.Kind)
	if len(backends) == 0 {
		log.Warn().
			Err(domain.ErrBackendUnavailable).
			Str("kind", string(req.Kind)).
			Msg("no backend configured for document kind")
		return outcome
	}

	for i, b := range backends {
		if i > 0 {
			outcome.FallbackOccurred = true
		}

		log.Info().
			Str("backend", b.Name()).
			Str("kind", string(req.Kind)).
			Msg("trying document extraction")

		start := time.Now()
		text, err := b.Recognize(ctx, req.Data, req.Kind)
		elapsed := time.Since(start)
		backendDuration.WithLabelValues(b.Name()).Observe(elapsed.Seconds())

		attempt := domain.RawRecognition{
			Backend:  b.Name(),
			Text:     text,
			Success:  err == nil,
			Err:      err,
			Duration: elapsed,
		}

		if err != nil {
			outcome.Attempts = append(outcome.Attempts, attempt)
			backendAttemptsTotal.WithLabelValues(b.Name(), "error").Inc()
			log.Warn().Err(err).
				Str("backend", b.Name()).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("backend failed, trying next")
			continue
		}

		if strings.TrimSpace(text) != "" {
			outcome.RawText = text
		}

		record := parser.Parse(text)
		if record.IsEmpty() {
			attempt.Err = domain.NewBackendError(b.Name(), domain.ErrNoMeaningfulData, nil)
			outcome.Attempts = append(outcome.Attempts, attempt)
			backendAttemptsTotal.WithLabelValues(b.Name(), "empty").Inc()
			log.Warn().Err(attempt.Err).
				Str("backend", b.Name()).
				Int("text_len", len(text)).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("backend failed, trying next")
			continue
		}

		outcome.Attempts = append(outcome.Attempts, attempt)
		outcome.Record = record
		outcome.Backend = b.Name()
		outcome.RawText = text
		backendAttemptsTotal.WithLabelValues(b.Name(), "meaningful").Inc()

		log.Info().
			Str("backend", b.Name()).
			Strs("fields", record.FieldsPresent()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("backend succeeded")
		break
	}

	if outcome.FallbackOccurred {
		fallbacksTotal.Inc()
	}
	if !outcome.Succeeded() {
		log.Warn().Int("attempts", len(outcome.Attempts)).Msg("no backend produced meaningful data")
	}

	return outcome
}
