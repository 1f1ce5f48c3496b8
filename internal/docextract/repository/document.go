package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/pkg/database"
	"github.com/docintake/docintake-backend/pkg/errors"
)

// selectColumns reads valid_until back in the same YYYY-MM-DD form it was written in
const selectColumns = `
	id, user_id, file_name, file_path,
	locality, county, street, street_number, block, staircase, floor, apartment,
	document_series, document_number, personal_code, issuing_office,
	to_char(valid_until, 'YYYY-MM-DD') AS valid_until,
	backend, fallback_occurred, raw_text, created_at`

// DocumentRepository is the result sink for extraction outcomes
type DocumentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Persist inserts a new identity_documents row for an outcome. Every
// outcome is stored, including empty records; rows are never merged.
func (r *DocumentRepository) Persist(ctx context.Context, userID, fileName, sourceRef string, outcome *domain.ProcessingOutcome) (*domain.IdentityDocument, error) {
	doc := &domain.IdentityDocument{
		ID:               uuid.New().String(),
		UserID:           userID,
		FileName:         fileName,
		FilePath:         sourceRef,
		IdentityRecord:   normalizeRecord(outcome.Record),
		Backend:          nullable(outcome.Backend),
		FallbackOccurred: outcome.FallbackOccurred,
		RawText:          nullable(outcome.RawText),
	}

	query := `
		INSERT INTO identity_documents (
			id, user_id, file_name, file_path,
			locality, county, street, street_number, block, staircase, floor, apartment,
			document_series, document_number, personal_code, issuing_office, valid_until,
			backend, fallback_occurred, raw_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at
	`

	rec := doc.IdentityRecord
	err := r.db.QueryRowxContext(ctx, query,
		doc.ID, doc.UserID, doc.FileName, doc.FilePath,
		rec.Locality, rec.County, rec.Street, rec.StreetNumber, rec.Block, rec.Staircase, rec.Floor, rec.Apartment,
		rec.DocumentSeries, rec.DocumentNumber, rec.PersonalCode, rec.IssuingOffice, rec.ValidUntil,
		doc.Backend, doc.FallbackOccurred, doc.RawText,
	).Scan(&doc.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, appErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	return doc, nil
}

// GetByID gets an identity document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.IdentityDocument, error) {
	var doc domain.IdentityDocument

	query := `SELECT ` + selectColumns + ` FROM identity_documents WHERE id = $1`
	err := r.db.GetContext(ctx, &doc, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("identity document")
	}
	if err != nil {
		return nil, fmt.Errorf("get identity document: %w", err)
	}

	return &doc, nil
}

// ListByUser lists a user's identity documents, newest first
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.IdentityDocument, error) {
	docs := []*domain.IdentityDocument{}

	query := `SELECT ` + selectColumns + `
		FROM identity_documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &docs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list identity documents: %w", err)
	}

	return docs, nil
}

// PurgeRawText clears the retained recognition text of rows created
// before the cutoff and returns the number of rows affected.
func (r *DocumentRepository) PurgeRawText(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE identity_documents SET raw_text = NULL WHERE raw_text IS NOT NULL AND created_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge raw text: %w", err)
	}
	return result.RowsAffected()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeRecord maps empty strings to NULL
func normalizeRecord(rec domain.IdentityRecord) domain.IdentityRecord {
	for _, f := range []**string{
		&rec.Locality, &rec.County, &rec.Street, &rec.StreetNumber, &rec.Block, &rec.Staircase,
		&rec.Floor, &rec.Apartment, &rec.DocumentSeries, &rec.DocumentNumber, &rec.PersonalCode,
		&rec.IssuingOffice, &rec.ValidUntil,
	} {
		if *f != nil && **f == "" {
			*f = nil
		}
	}
	return rec
}
