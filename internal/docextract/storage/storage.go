// Package storage keeps the original uploaded documents so they can be
// re-extracted later. References returned by Save are stored in
// identity_documents.file_path.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// FileStore saves and loads original document bytes
type FileStore interface {
	// Save stores data and returns an opaque reference for Load
	Save(ctx context.Context, userID, fileName string, data []byte) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
}

// New creates the FileStore selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (FileStore, error) {
	switch cfg.Driver {
	case "", config.StorageLocal:
		return NewLocalStore(cfg.LocalDir)
	case config.StorageS3:
		return NewS3Store(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// objectKey builds "<user>/<uuid><ext>". Only the extension of the client
// supplied name is kept.
func objectKey(userID, fileName string) string {
	user := unsafeChars.ReplaceAllString(userID, "_")
	if user == "" {
		user = "_"
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if unsafeChars.MatchString(strings.TrimPrefix(ext, ".")) || len(ext) > 8 {
		ext = ""
	}
	return path.Join(user, uuid.New().String()+ext)
}

// validRef rejects references that could escape the store root
func validRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, "\\") {
		return false
	}
	return path.Clean(ref) == ref && !strings.HasPrefix(ref, "..")
}
