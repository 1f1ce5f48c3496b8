package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

const (
	headerSubscriptionKey   = "Ocp-Apim-Subscription-Key"
	headerOperationLocation = "Operation-Location"

	statusNotStarted = "notStarted"
	statusRunning    = "running"
	statusSucceeded  = "succeeded"

	maxErrorBody = 4 << 10
)

var errStillRunning = errors.New("analysis still running")

// CloudBackend submits documents to a cloud document analysis service
// and polls the operation until the read result is available.
type CloudBackend struct {
	endpoint   string
	apiKey     string
	modelID    string
	apiVersion string

	pollInitial time.Duration
	pollMax     time.Duration
	pollTimeout time.Duration

	httpClient *http.Client
	log        *logger.Logger
}

// NewCloudBackend creates a cloud backend. It returns nil when the
// endpoint or API key is missing so the backend is simply not registered.
func NewCloudBackend(cfg config.CloudConfig, log *logger.Logger) *CloudBackend {
	if !cfg.Configured() {
		return nil
	}

	b := &CloudBackend{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:      cfg.APIKey,
		modelID:     cfg.ModelID,
		apiVersion:  cfg.APIVersion,
		pollInitial: cfg.PollInitialInterval,
		pollMax:     cfg.PollMaxInterval,
		pollTimeout: cfg.PollTimeout,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		log: log.WithComponent("cloud-backend"),
	}
	if b.pollInitial <= 0 {
		b.pollInitial = time.Second
	}
	if b.pollMax < b.pollInitial {
		b.pollMax = b.pollInitial
	}
	if b.pollTimeout <= 0 {
		b.pollTimeout = 2 * time.Minute
	}
	return b
}

func (b *CloudBackend) Name() string { return BackendCloud }

func (b *CloudBackend) Supports(kind domain.DocumentKind) bool {
	return kind == domain.KindImage || kind == domain.KindPDF
}

func (b *CloudBackend) Recognize(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.pollTimeout)
	defer cancel()

	operationURL, err := b.submit(ctx, data)
	if err != nil {
		return "", err
	}

	b.log.Debug().
		Str("kind", string(kind)).
		Str("operation", operationURL).
		Msg("analysis submitted")

	return b.poll(ctx, operationURL)
}

func (b *CloudBackend) analyzeURL() string {
	q := url.Values{}
	q.Set("api-version", b.apiVersion)
	return fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?%s",
		b.endpoint, url.PathEscape(b.modelID), q.Encode())
}

// submit posts the document and returns the Operation-Location to poll
func (b *CloudBackend) submit(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.analyzeURL(), bytes.NewReader(data))
	if err != nil {
		return "", b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", ContentType(data))
	req.Header.Set(headerSubscriptionKey, b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", b.transportError(ctx, "submit", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", b.fail(domain.ErrBackendRequestFailed,
			fmt.Errorf("submit returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get(headerOperationLocation)
	if location == "" {
		return "", b.fail(domain.ErrBackendRequestFailed, errors.New("response is missing Operation-Location"))
	}
	return location, nil
}

// analyzeResponse is the subset of the analysis result we read
type analyzeResponse struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// poll fetches the operation with exponential backoff until it reaches
// a terminal status or the poll ceiling expires.
func (b *CloudBackend) poll(ctx context.Context, operationURL string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.pollInitial
	bo.MaxInterval = b.pollMax
	bo.MaxElapsedTime = b.pollTimeout

	var content string
	attempts := 0
	op := func() error {
		attempts++
		result, err := b.fetchOperation(ctx, operationURL)
		if err != nil {
			return backoff.Permanent(err)
		}

		switch result.Status {
		case statusNotStarted, statusRunning:
			return errStillRunning
		case statusSucceeded:
			if result.AnalyzeResult != nil {
				content = result.AnalyzeResult.Content
			}
			return nil
		default:
			reason := result.Status
			if result.Error != nil {
				reason = fmt.Sprintf("%s: %s %s", result.Status, result.Error.Code, result.Error.Message)
			}
			return backoff.Permanent(b.fail(domain.ErrBackendRequestFailed,
				fmt.Errorf("analysis finished with status %s", reason)))
		}
	}

	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	if err == nil {
		b.log.Debug().Int("polls", attempts).Int("content_len", len(content)).Msg("analysis succeeded")
		return content, nil
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		return "", be
	}
	if errors.Is(err, errStillRunning) || ctx.Err() != nil {
		return "", b.fail(domain.ErrBackendTimeout, fmt.Errorf("analysis not finished after %d polls", attempts))
	}
	return "", b.fail(domain.ErrBackendRequestFailed, err)
}

func (b *CloudBackend) fetchOperation(ctx context.Context, operationURL string) (*analyzeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("create poll request: %w", err))
	}
	req.Header.Set(headerSubscriptionKey, b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, b.transportError(ctx, "poll", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, b.fail(domain.ErrBackendRequestFailed,
			fmt.Errorf("poll returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("decode poll response: %w", err))
	}
	return &result, nil
}

func (b *CloudBackend) transportError(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil {
		return b.fail(domain.ErrBackendTimeout, fmt.Errorf("%s: %w", stage, err))
	}
	return b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("%s: %w", stage, err))
}

func (b *CloudBackend) fail(kind, err error) *domain.BackendError {
	return domain.NewBackendError(BackendCloud, kind, err)
}
