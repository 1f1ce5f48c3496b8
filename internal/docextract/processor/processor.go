package processor

import (
	"context"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// Backend names as they appear in logs, metrics and persisted rows
const (
	BackendCloud = "cloud"
	BackendLocal = "local"
)

// Backend recognizes the text of an identity document.
// Implementations report failures as *domain.BackendError.
type Backend interface {
	// Name returns the backend name for logging and persistence
	Name() string

	// Supports reports whether the backend accepts the given document kind
	Supports(kind domain.DocumentKind) bool

	// Recognize returns the document text in reading order. Empty text is
	// a successful result, not an error. data must not be modified.
	Recognize(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error)
}

// Registry holds the configured backends in priority order
type Registry struct {
	backends []Backend
}

// NewRegistry creates a registry with backends in priority order
func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// NewDefaultRegistry registers the cloud backend first when it is
// configured, followed by the local engine when enabled.
func NewDefaultRegistry(cfg config.ExtractionConfig, runner Runner, log *logger.Logger) *Registry {
	var backends []Backend
	if cloud := NewCloudBackend(cfg.Cloud, log); cloud != nil {
		backends = append(backends, cloud)
	}
	if local := NewLocalBackend(cfg.Local, runner, log); local != nil {
		backends = append(backends, local)
	}
	return NewRegistry(backends...)
}

// FindBackends returns all backends that accept kind, in priority order
func (r *Registry) FindBackends(kind domain.DocumentKind) []Backend {
	var result []Backend
	for _, b := range r.backends {
		if b.Supports(kind) {
			result = append(result, b)
		}
	}
	return result
}

// Names returns the registered backend names in priority order
func (r *Registry) Names() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}
