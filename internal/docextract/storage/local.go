package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docintake/docintake-backend/pkg/errors"
)

// LocalStore keeps originals in per-user directories on local disk
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, stderrors.New("local storage directory is not configured")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(_ context.Context, userID, fileName string, data []byte) (string, error) {
	ref := objectKey(userID, fileName)
	target := filepath.Join(s.root, filepath.FromSlash(ref))

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Load(_ context.Context, ref string) ([]byte, error) {
	if !validRef(ref) {
		return nil, errors.BadRequest("invalid document reference")
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(ref)))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFound("stored document")
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}
