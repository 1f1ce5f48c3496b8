package handler

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/internal/docextract/service"
	"github.com/docintake/docintake-backend/pkg/errors"
	"github.com/docintake/docintake-backend/pkg/httputil"
	"github.com/docintake/docintake-backend/pkg/logger"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// DocumentService is the part of service.Service used by the handler
type DocumentService interface {
	Process(ctx context.Context, req domain.ExtractionRequest) (*service.Result, error)
	RequestReextract(ctx context.Context, documentID, userID string) (*service.Result, error)
	Get(ctx context.Context, documentID, userID string) (*domain.IdentityDocument, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.IdentityDocument, error)
}

// DocumentHandler handles HTTP requests for identity documents
type DocumentHandler struct {
	service        DocumentService
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc DocumentService, maxUploadBytes int64, log *logger.Logger) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &DocumentHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// Routes registers the document routes on r
func (h *DocumentHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/reextract", h.Reextract)
}

// Upload handles POST /documents
// Accepts multipart form with:
// - file: the identity document image or PDF
// - document_type: optional hint, image or pdf
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			httputil.Error(w, errors.PayloadTooLarge(h.maxUploadBytes))
			return
		}
		httputil.Error(w, errors.BadRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.Validation(map[string]string{"file": "this field is required"}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.BadRequest("failed to read uploaded file"))
		return
	}

	kind, err := resolveKind(data, header.Filename, r.FormValue("document_type"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Process(r.Context(), domain.ExtractionRequest{
		Data:     data,
		Kind:     kind,
		UserID:   httputil.GetUserID(r.Context()),
		FileName: header.Filename,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// resolveKind combines content sniffing with the optional client hint.
// A hint that contradicts the content is rejected.
func resolveKind(data []byte, fileName, hint string) (domain.DocumentKind, error) {
	detected, ok := processor.DetectKind(data, fileName)

	if hint != "" {
		k := domain.DocumentKind(hint)
		if !k.Valid() {
			return "", errors.Validation(map[string]string{"document_type": "must be one of: image pdf"})
		}
		if ok && k != detected {
			return "", errors.Validation(map[string]string{"document_type": "does not match the uploaded file"})
		}
		return k, nil
	}

	if !ok {
		return "", errors.Validation(map[string]string{"file": "unsupported document format"})
	}
	return detected, nil
}

// List handles GET /documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	docs, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()), limit, offset)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, docs, &httputil.Meta{
		Limit:  limit,
		Offset: offset,
		Count:  len(docs),
	})
}

// Get handles GET /documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.service.Get(r.Context(), id, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Reextract handles POST /documents/{id}/reextract
// Responds 202 when the request was queued and 201 with the new
// document when it ran synchronously.
func (h *DocumentHandler) Reextract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.RequestReextract(r.Context(), id, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if result == nil {
		httputil.JSON(w, http.StatusAccepted, map[string]string{
			"document_id": id,
			"status":      "queued",
		})
		return
	}

	httputil.Created(w, result)
}
